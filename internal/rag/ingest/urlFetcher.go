package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/akolanti/ChatDocs/internal/config"
	"github.com/akolanti/ChatDocs/internal/domain/commonModels"
	"github.com/akolanti/ChatDocs/internal/domain/errorModel"
	"github.com/akolanti/ChatDocs/pkg/logger_i"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// URLFetcher downloads a page and reduces it to visible text.
type URLFetcher struct {
	client  *http.Client
	maxBody int64
}

func NewURLFetcher(client *http.Client) *URLFetcher {
	return &URLFetcher{client: client, maxBody: config.MaxURLBodySize}
}

// Fetch returns a single page numbered 0. Bad locators, transport errors and non-2xx replies are unreadable.
func (f *URLFetcher) Fetch(ctx context.Context, rawURL string) ([]commonModels.Page, error) {
	log := logger_i.FromContext(ctx, "url_fetcher").With("url", rawURL)

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errorModel.Unreadable(fmt.Errorf("invalid url %q", rawURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errorModel.Unreadable(err)
	}
	req.Header.Set("User-Agent", "ChatDocs/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Warn("Fetching url failed", "error", err)
		return nil, errorModel.Unreadable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorModel.Unreadable(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body := io.LimitReader(resp.Body, f.maxBody)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	var text string
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err = htmlToText(body)
	case strings.HasPrefix(mediaType, "text/"):
		var raw []byte
		raw, err = io.ReadAll(body)
		text = string(raw)
	default:
		return nil, errorModel.Unreadable(fmt.Errorf("unsupported content type %q", mediaType))
	}
	if err != nil {
		return nil, errorModel.Unreadable(err)
	}

	log.Debug("Fetched url", "chars", len(text))
	return []commonModels.Page{{Number: 0, Text: text}}, nil
}

// htmlToText keeps text nodes outside script, style and similar non-visible elements,
// one node per line.
func htmlToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, "\n"), nil
}
