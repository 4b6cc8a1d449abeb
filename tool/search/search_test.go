package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgResponse = `{
	"Heading": "Go (programming language)",
	"AbstractText": "Go is a statically typed, compiled language.",
	"AbstractSource": "Wikipedia",
	"AbstractURL": "https://en.wikipedia.org/wiki/Go_(programming_language)",
	"Answer": "",
	"RelatedTopics": [
		{"Text": "Goroutines - lightweight threads", "FirstURL": "https://duckduckgo.com/Goroutine"},
		{"Name": "See also", "Topics": [
			{"Text": "Rob Pike", "FirstURL": "https://duckduckgo.com/Rob_Pike"},
			{"Text": "Ken Thompson", "FirstURL": "https://duckduckgo.com/Ken_Thompson"}
		]},
		{"Text": "Gopher mascot", "FirstURL": "https://duckduckgo.com/Gopher"}
	]
}`

func newTestClient(t *testing.T, body string, max int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/x-javascript")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return NewClient(func(o *Options) {
		o.BaseURL = srv.URL + "/"
		o.HTTPClient = srv.Client()
		o.MaxResults = max
	})
}

func TestSearch_AbstractAndRelated(t *testing.T) {
	res, err := newTestClient(t, ddgResponse, 3).Search(context.Background(), "golang")
	require.NoError(t, err)

	assert.Equal(t, "Go (programming language)", res.Heading)
	assert.Equal(t, "Wikipedia", res.Source)
	require.Len(t, res.Related, 3)
	assert.Equal(t, "Goroutines - lightweight threads", res.Related[0].Text)
	assert.Equal(t, "Rob Pike", res.Related[1].Text)
	assert.Equal(t, "Ken Thompson", res.Related[2].Text)
	assert.False(t, res.Empty())
}

func TestTool_NoResults(t *testing.T) {
	tl, err := New(newTestClient(t, `{"Heading": "", "AbstractText": "", "RelatedTopics": []}`, 5))
	require.NoError(t, err)

	out, err := tl.Call(context.Background(), map[string]any{"query": "zzqxv"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"query": "zzqxv", "result": "no results found"}, out)
}

func TestSearch_InvalidJSON(t *testing.T) {
	_, err := newTestClient(t, `<html>`, 5).Search(context.Background(), "x")
	assert.Error(t, err)
}
