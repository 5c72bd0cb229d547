// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package localagent

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultSearchURL     = "https://html.duckduckgo.com/html/"
	DefaultMaxFetchBytes = 2 * 1024 * 1024
	DefaultMaxTextRunes  = 100_000
	DefaultMaxResults    = 10

	userAgent = "Mozilla/5.0 (compatible; omni-hotsearch/1.0)"
)

type WebFetchArgs struct {
	URL string `json:"url" jsonschema:"format=uri" jsonschema_description:"Absolute http or https URL to fetch"`
}

type WebSearchArgs struct {
	Query string `json:"query" jsonschema:"minLength=1" jsonschema_description:"Search terms"`
}

// Web implements the WebFetch and WebSearch tools.
type Web struct {
	Client *http.Client

	// HTML endpoint queried with the q parameter.
	SearchURL string

	MaxFetchBytes int64
	MaxTextRunes  int
	MaxResults    int
}

func (w *Web) client() *http.Client {
	if w.Client != nil {
		return w.Client
	}
	return http.DefaultClient
}

// Fetch downloads args.URL. HTML documents are reduced to their visible
// text; any other body is returned as is.
func (w *Web) Fetch(ctx context.Context, args WebFetchArgs) (string, error) {
	u, err := url.Parse(args.URL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	body, contentType, err := w.get(ctx, u.String())
	if err != nil {
		return "", err
	}

	text := string(body)
	if isHTML(contentType, body) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to parse HTML: %w", err)
		}
		text = documentText(doc)
	}
	return truncateRunes(text, cmp.Or(w.MaxTextRunes, DefaultMaxTextRunes)), nil
}

// Search queries the search endpoint and formats the first results as
// numbered title, URL and snippet entries.
func (w *Web) Search(ctx context.Context, args WebSearchArgs) (string, error) {
	endpoint, err := url.Parse(cmp.Or(w.SearchURL, DefaultSearchURL))
	if err != nil {
		return "", fmt.Errorf("invalid search URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("q", args.Query)
	endpoint.RawQuery = q.Encode()

	body, _, err := w.get(ctx, endpoint.String())
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse search results: %w", err)
	}

	maxResults := cmp.Or(w.MaxResults, DefaultMaxResults)
	var sb strings.Builder
	n := 0
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		title := collapseSpaces(link.Text())
		href, ok := link.Attr("href")
		if !ok || title == "" {
			return true
		}
		n++
		_, _ = fmt.Fprintf(&sb, "%d. %s\n   %s\n", n, title, resultURL(href))
		if snippet := collapseSpaces(s.Find(".result__snippet").Text()); snippet != "" {
			_, _ = fmt.Fprintf(&sb, "   %s\n", snippet)
		}
		return n < maxResults
	})
	if n == 0 {
		return "No results found.", nil
	}
	return sb.String(), nil
}

func (w *Web) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("%s returned HTTP status %d", rawURL, resp.StatusCode)
	}

	maxBytes := cmp.Or(w.MaxFetchBytes, DefaultMaxFetchBytes)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			return mediaType == "text/html" || mediaType == "application/xhtml+xml"
		}
	}
	return strings.Contains(http.DetectContentType(body), "text/html")
}

// documentText returns the title and the visible text of doc, one
// non-empty line per text line.
func documentText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, svg").Remove()

	var lines []string
	if title := collapseSpaces(doc.Find("title").First().Text()); title != "" {
		lines = append(lines, "Title: "+title, "")
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	for _, line := range strings.Split(root.Text(), "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// resultURL unwraps the redirect links used by the search result page.
func resultURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		u.Scheme = "https"
	}
	return u.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == limit {
			return s[:pos] + "\n[truncated]"
		}
		i++
	}
	return s
}
