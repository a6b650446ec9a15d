package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const pathUploadFile = "api/upload_file"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// progressReader reports the number of bytes read so far.
type progressReader struct {
	r          io.Reader
	loaded     int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.loaded, p.total)
		}
	}
	return n, err
}

// UploadFile sends the local file at localPath to the printer's files
// directory as multipart field "file". onProgress may be nil.
func (c *Client) UploadFile(ctx context.Context, localPath string, onProgress ProgressFunc) (*CommandResponse, error) {
	resp, err := c.uploadFile(ctx, localPath, onProgress)
	return resp, c.handleError(ctx, err)
}

func (c *Client) uploadFile(ctx context.Context, localPath string, onProgress ProgressFunc) (*CommandResponse, error) {
	const op = "upload file"

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", localPath)
	}

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(localPath); err == nil {
		contentType = mtype.String()
	}

	head, tail, boundary, err := multipartFrame(filepath.Base(localPath), contentType)
	if err != nil {
		return nil, err
	}

	size := info.Size()
	body := io.MultiReader(
		bytes.NewReader(head),
		&progressReader{r: f, total: size, onProgress: onProgress},
		bytes.NewReader(tail),
	)

	req, err := c.newRequest(ctx, op, http.MethodPost, pathUploadFile, nil, body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(len(head)) + size + int64(len(tail))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

	var resp CommandResponse
	if err := c.do(c.UploadClient, op, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// multipartFrame renders the bytes that precede and follow the file content
// of a single-part multipart body, so the content can be streamed with a
// known length.
func multipartFrame(filename, contentType string) (head, tail []byte, boundary string, err error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	if _, err := mw.CreatePart(h); err != nil {
		return nil, nil, "", fmt.Errorf("failed to create multipart header: %w", err)
	}
	headLen := buf.Len()
	if err := mw.Close(); err != nil {
		return nil, nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	all := buf.Bytes()
	return all[:headLen], all[headLen:], mw.Boundary(), nil
}
