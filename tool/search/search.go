// Package search provides a web search tool backed by the DuckDuckGo
// Instant Answer API. No API key is required.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/beeflow/tool"
)

// DefaultURL is the Instant Answer endpoint.
const DefaultURL = "https://api.duckduckgo.com/"

// Name is the tool name exposed to models.
const Name = "web_search"

// Options configures the search client.
type Options struct {
	HTTPClient *http.Client
	BaseURL    string
	MaxResults int
	UserAgent  string
}

// Client queries DuckDuckGo.
type Client struct {
	opts Options
}

// NewClient creates a client with defaults (5 results).
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		BaseURL:    DefaultURL,
		MaxResults: 5,
		UserAgent:  "beeflow",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{opts: opts}
}

// Hit is a single related result.
type Hit struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// Results is the answer to a query.
type Results struct {
	Query    string `json:"query"`
	Heading  string `json:"heading,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Source   string `json:"source,omitempty"`
	URL      string `json:"url,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Related  []Hit  `json:"related,omitempty"`
}

// Empty reports whether nothing useful was found.
func (r *Results) Empty() bool {
	return r.Abstract == "" && r.Answer == "" && len(r.Related) == 0
}

// Search runs query and collects the abstract, direct answer and related topics.
func (c *Client) Search(ctx context.Context, query string) (*Results, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: duckduckgo returned %d", query, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("search %q: invalid JSON response", query)
	}

	doc := gjson.ParseBytes(body)
	res := &Results{
		Query:    query,
		Heading:  doc.Get("Heading").String(),
		Abstract: doc.Get("AbstractText").String(),
		Source:   doc.Get("AbstractSource").String(),
		URL:      doc.Get("AbstractURL").String(),
		Answer:   doc.Get("Answer").String(),
	}

	// Related topics are either hits or named groups of hits.
	doc.Get("RelatedTopics").ForEach(func(_, topic gjson.Result) bool {
		if sub := topic.Get("Topics"); sub.IsArray() {
			sub.ForEach(func(_, t gjson.Result) bool {
				res.add(t, c.opts.MaxResults)
				return len(res.Related) < c.opts.MaxResults
			})
		} else {
			res.add(topic, c.opts.MaxResults)
		}
		return len(res.Related) < c.opts.MaxResults
	})

	return res, nil
}

func (r *Results) add(topic gjson.Result, limit int) {
	text := topic.Get("Text").String()
	if text == "" || len(r.Related) >= limit {
		return
	}
	r.Related = append(r.Related, Hit{Text: text, URL: topic.Get("FirstURL").String()})
}

// Args are the tool arguments.
type Args struct {
	Query string `json:"query" jsonschema:"description=Search query"`
}

// New returns the search tool backed by client. A nil client uses defaults.
func New(client *Client) (*tool.FunctionTool, error) {
	if client == nil {
		client = NewClient()
	}
	return tool.NewTypedTool(Name,
		"Search the web for facts, definitions and recent information about a topic.",
		func(ctx context.Context, args Args) (any, error) {
			res, err := client.Search(ctx, args.Query)
			if err != nil {
				return nil, err
			}
			if res.Empty() {
				return map[string]any{"query": args.Query, "result": "no results found"}, nil
			}
			return res, nil
		})
}
