package fileInfo

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// FileNode describes a local file picked for upload.
type FileNode struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
	Checksum string `json:"checksum,omitempty"`
	Path     string `json:"-"`
}

// CreateNode stats the regular file at path and detects its content type.
// The checksum is computed lazily by CalcChecksum.
func CreateNode(path string) (FileNode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileNode{}, err
	}
	if info.IsDir() {
		return FileNode{}, fmt.Errorf("%s is a directory", path)
	}
	node := FileNode{
		Name: info.Name(),
		Size: info.Size(),
		Path: path,
	}
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		node.MimeType = "application/octet-stream"
	} else {
		node.MimeType = mime.String()
	}
	return node, nil
}
