package util

import (
	"os"
	"path/filepath"
	"strings"
)

// CheckDirectory reports whether a local path exists and is a directory.
func CheckDirectory(path string) (exists bool, isDir bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, info.IsDir(), nil
}

// NormalizeDir turns a user supplied remote path into the slash-terminated
// form used for listing queries. The root is the empty string.
func NormalizeDir(path string) string {
	path = strings.Trim(path, "/")
	if path == "" || path == "." {
		return ""
	}
	return path + "/"
}

// JoinDir appends a directory segment to a remote path.
func JoinDir(path, dirname string) string {
	return NormalizeDir(path) + strings.Trim(dirname, "/") + "/"
}

// ParentDir strips the last "<segment>/" from a remote path.
func ParentDir(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return ""
	}
	return trimmed[:i+1]
}

// HasExtension reports whether name ends with one of exts, ignoring case.
// Extensions include the leading dot.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// IsHidden reports whether a file name is a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
