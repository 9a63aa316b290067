package articles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/inbucket/html2text"
	"github.com/sandevgo/brotherbot/internal/core"
	"github.com/sandevgo/brotherbot/pkg/log"
	"github.com/sandevgo/brotherbot/pkg/retry"
)

const (
	maxPageSize         = 2 << 20
	defaultFetchTimeout = 10 * time.Second
)

type Article struct {
	Href  string
	Title string
}

type Config struct {
	URL     string
	BaseURL string
	Filter  string
}

// Checker scrapes the story index and reports links it has not seen.
type Checker struct {
	cfg     Config
	seen    *SeenStore
	client  *http.Client
	retrier *retry.Retrier
}

func NewChecker(cfg Config, seen *SeenStore) *Checker {
	return NewCheckerWithClient(cfg, seen, &http.Client{Timeout: defaultFetchTimeout}, retry.NewDefaultConfig())
}

func NewCheckerWithClient(cfg Config, seen *SeenStore, client *http.Client, retryCfg *retry.Config) *Checker {
	return &Checker{
		cfg:     cfg,
		seen:    seen,
		client:  client,
		retrier: retry.NewRetrier(retryCfg),
	}
}

// Check returns the unseen articles oldest first and records them as seen.
func (c *Checker) Check(ctx context.Context) ([]Article, error) {
	page, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	found, err := extractArticles(page, c.cfg.Filter)
	if err != nil {
		return nil, err
	}

	seen, err := c.seen.Load()
	if err != nil {
		return nil, err
	}

	var fresh []Article
	for _, a := range found {
		if _, ok := seen[a.Href]; ok {
			continue
		}
		seen[a.Href] = struct{}{}
		fresh = append(fresh, a)
	}

	if len(fresh) == 0 {
		return nil, nil
	}
	if err := c.seen.Save(seen); err != nil {
		return nil, err
	}

	// the index lists the newest story first
	for i, j := 0, len(fresh)-1; i < j; i, j = i+1, j-1 {
		fresh[i], fresh[j] = fresh[j], fresh[i]
	}

	log.FromCtx(ctx).Info().Int("new", len(fresh)).Int("total", len(found)).Msg("checked story index")
	return fresh, nil
}

// Link joins a relative href onto the site base URL.
func (c *Checker) Link(a Article) string {
	if strings.HasPrefix(a.Href, "http://") || strings.HasPrefix(a.Href, "https://") {
		return a.Href
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + a.Href
}

func (c *Checker) fetch(ctx context.Context) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", core.BotUserAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", c.cfg.URL, err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			err := fmt.Errorf("error fetching %s: status code %d", c.cfg.URL, resp.StatusCode)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		body = struct {
			io.Reader
			io.Closer
		}{io.LimitReader(resp.Body, maxPageSize), resp.Body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// extractArticles returns anchors whose href contains filter, in page order,
// without duplicates.
func extractArticles(r io.Reader, filter string) ([]Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse story index: %w", err)
	}

	var out []Article
	dup := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, filter) || dup[href] {
			return
		}
		dup[href] = true
		out = append(out, Article{Href: href, Title: anchorTitle(s)})
	})
	return out, nil
}

func anchorTitle(s *goquery.Selection) string {
	inner, err := s.Html()
	if err != nil {
		return strings.TrimSpace(s.Text())
	}
	text, err := html2text.FromString(inner, html2text.Options{OmitLinks: true})
	if err != nil {
		return strings.TrimSpace(s.Text())
	}
	return strings.Join(strings.Fields(text), " ")
}
