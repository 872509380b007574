// Package webfetch retrieves the text of a web page for skills that accept --url.
package webfetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

const DefaultUserAgent = "Mozilla/5.0 (compatible; pai/1.0)"

// Fetcher downloads URLs and reduces HTML to its visible text.
type Fetcher struct {
	client *resty.Client
}

// New creates a Fetcher with the given timeout (0 means none).
func New(timeout time.Duration) *Fetcher {
	c := resty.New().
		SetHeader("User-Agent", DefaultUserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Fetcher{client: c}
}

// Fetch returns the body of url. HTML documents are converted to plain text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", skill.Usagef("unsupported URL %q (must be http or https)", url)
	}

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", skill.Transport(fmt.Errorf("fetch %s: %w", url, err))
	}
	if resp.IsError() {
		return "", skill.Transport(fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode()))
	}

	body := resp.String()
	if strings.Contains(strings.ToLower(resp.Header().Get("Content-Type")), "html") {
		text, err := ExtractText(body)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", url, err)
		}
		return text, nil
	}
	return body, nil
}

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"svg":      true,
	"template": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "pre": true, "blockquote": true,
}

// ExtractText returns the visible text of an HTML document, one block per line.
func ExtractText(document string) (string, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", err
	}

	var lines []string
	var current strings.Builder
	flush := func() {
		line := strings.Join(strings.Fields(current.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			current.WriteString(n.Data)
			current.WriteByte(' ')
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(root)
	flush()

	return strings.Join(lines, "\n"), nil
}
