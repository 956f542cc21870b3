// Package fetch provides URL fetching for remote JSON documents.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; KnowledgeDashboard/1.0)"

// snippetLength caps how much page text is quoted in an error.
const snippetLength = 120

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Headers:   map[string]string{"Accept": "application/json"},
	}
}

// URL performs a single GET request and returns the response body.
// Any non-2xx status is reported as an *Error alongside the result.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			URL:        urlStr,
			Message:    "failed to read response body",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	result := &Result{
		URL:         urlStr,
		Body:        bodyBytes,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return result, nil
}

// JSON fetches urlStr and decodes the whole body as a JSON value.
// Nothing is returned unless the body decodes completely.
func JSON(ctx context.Context, urlStr string, opts *Options) (any, error) {
	result, err := URL(ctx, urlStr, opts)
	if err != nil {
		return nil, err
	}

	value, err := decode(result.Body)
	if err != nil {
		msg := "response is not valid JSON"
		if snippet := htmlSnippet(result); snippet != "" {
			msg = fmt.Sprintf("%s (page says %q)", msg, snippet)
		}
		return nil, &Error{
			URL:        urlStr,
			Message:    msg,
			StatusCode: result.StatusCode,
			Cause:      err,
		}
	}

	return value, nil
}

// decode parses the body as exactly one JSON value.
func decode(body []byte) (any, error) {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// Client fetches JSON documents with fixed options.
type Client struct {
	Options *Options
}

// NewClient creates a Client whose requests time out after timeout.
// A zero timeout uses DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	opts := DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	return &Client{Options: opts}
}

// FetchJSON retrieves and decodes the JSON document at urlStr.
func (c *Client) FetchJSON(ctx context.Context, urlStr string) (any, error) {
	return JSON(ctx, urlStr, c.Options)
}

// htmlSnippet returns the leading visible text of an HTML body, or "" when
// the body does not look like HTML.
func htmlSnippet(result *Result) string {
	if !looksLikeHTML(result) {
		return ""
	}

	text, err := ExtractMainText(string(result.Body))
	if err != nil || text == "" {
		return ""
	}

	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > snippetLength {
		text = string(runes[:snippetLength]) + "..."
	}
	return text
}

func looksLikeHTML(result *Result) bool {
	if strings.Contains(result.ContentType, "html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(result.Body)))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// ExtractMainText parses HTML and returns the main body text.
// Script, style and navigation noise is removed first.
func ExtractMainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript").Remove()

	var mainContent *goquery.Selection
	for _, selector := range []string{"main", "article", "#content", ".content"} {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// cleanWhitespace normalizes whitespace in text.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
