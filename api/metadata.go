package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// Meta tag names read from the server's index page.
const (
	MetaCSRFToken           = "csrf-token"
	MetaSupportedExtensions = "supported-extensions"
	MetaPrinterDisplayName  = "printer-display-name"
)

// Metadata is the startup configuration the server embeds in its index page.
// Empty fields were not present.
type Metadata struct {
	CSRFToken           string
	SupportedExtensions []string
	PrinterDisplayName  string
}

// FetchMetadata loads the index page, reads its meta tags and adopts the CSRF
// token for subsequent requests. The session cookie the token is bound to is
// kept in the client's cookie jar.
func (c *Client) FetchMetadata(ctx context.Context) (*Metadata, error) {
	meta, err := c.fetchMetadata(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err)
	}
	if meta.CSRFToken != "" {
		c.SetCSRFToken(meta.CSRFToken)
	}
	return meta, nil
}

func (c *Client) fetchMetadata(ctx context.Context) (*Metadata, error) {
	const op = "fetch metadata"
	req, err := c.newRequest(ctx, op, http.MethodGet, "", nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, newResponseError(op, resp.StatusCode, body)
	}

	meta, err := ParseMetadata(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindContract, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return meta, nil
}

// ParseMetadata extracts the known meta tags from an HTML document.
func ParseMetadata(r io.Reader) (*Metadata, error) {
	meta := &Metadata{}
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("failed to parse index page: %w", err)
			}
			return meta, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			meta.apply(name, content)
		}
	}
}

func (m *Metadata) apply(name, content string) {
	switch name {
	case MetaCSRFToken:
		m.CSRFToken = content
	case MetaPrinterDisplayName:
		m.PrinterDisplayName = content
	case MetaSupportedExtensions:
		m.SupportedExtensions = m.SupportedExtensions[:0]
		for _, ext := range strings.Split(content, ",") {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			m.SupportedExtensions = append(m.SupportedExtensions, ext)
		}
	}
}
