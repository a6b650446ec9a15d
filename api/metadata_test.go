package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="csrf-token" content="abc123">
  <meta name="supported-extensions" content="ctb, CBDDLP,.fdg,photon">
  <meta name="printer-display-name" content="Elegoo Mars">
  <title>mariner</title>
</head>
<body><div id="root"></div></body>
</html>`

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata(strings.NewReader(indexPage))
	require.NoError(t, err)
	assert.Equal(t, "abc123", meta.CSRFToken)
	assert.Equal(t, "Elegoo Mars", meta.PrinterDisplayName)
	assert.Equal(t, []string{".ctb", ".cbddlp", ".fdg", ".photon"}, meta.SupportedExtensions)
}

func TestParseMetadata_MissingTags(t *testing.T) {
	meta, err := ParseMetadata(strings.NewReader("<html><head><title>x</title></head></html>"))
	require.NoError(t, err)
	assert.Empty(t, meta.CSRFToken)
	assert.Empty(t, meta.PrinterDisplayName)
	assert.Empty(t, meta.SupportedExtensions)
}

func TestFetchMetadata_AdoptsCSRFToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("POST /api/printer/command/resume_print", successHandler)
	fp := newFakePrinter(t, mux)
	c := newTestClient(t, fp.URL)

	meta, err := c.FetchMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", meta.CSRFToken)

	_, err = c.ResumePrint(context.Background())
	require.NoError(t, err)

	reqs := fp.Requests()
	require.Len(t, reqs, 2)
	assert.Empty(t, reqs[0].Header.Get(csrfHeader))
	assert.Equal(t, "abc123", reqs[1].Header.Get(csrfHeader))
	assert.Contains(t, reqs[1].Header.Get("Cookie"), "session=s1")
}
