package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/amishk599/jobscout/internal/model"
)

// StaticBrowser fetches raw HTML with colly and extracts text with goquery.
// Pages are not rendered, so script-built content is missing; it exists for
// hosts without browser binaries.
type StaticBrowser struct{}

// NewStaticBrowser returns a StaticBrowser.
func NewStaticBrowser() *StaticBrowser {
	return &StaticBrowser{}
}

// NewContext creates a collector configured with the identity and proxy in opts.
func (b *StaticBrowser) NewContext(opts ContextOptions) (Context, error) {
	c := colly.NewCollector(colly.AllowURLRevisit())
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	// Block pages are usually served with 403/429; their body must still be read.
	c.ParseHTTPErrorResponse = true

	if opts.Proxy != nil {
		raw, err := proxyURL(*opts.Proxy)
		if err != nil {
			return nil, err
		}
		if err := c.SetProxy(raw); err != nil {
			return nil, fmt.Errorf("set proxy: %w", err)
		}
	}

	headers := opts.Headers
	c.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
	})

	sc := &staticContext{collector: c}
	c.OnResponse(func(r *colly.Response) {
		sc.body = r.Body
	})
	return sc, nil
}

// Close is a no-op; collectors hold no external resources.
func (b *StaticBrowser) Close() error {
	return nil
}

type staticContext struct {
	collector *colly.Collector
	body      []byte
}

// Navigate visits url synchronously. The collector's requests carry ctx, so
// cancellation aborts the transfer and no callback runs after return.
func (c *staticContext) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	c.collector.SetRequestTimeout(timeout)
	c.collector.Context = ctx

	if err := c.collector.Visit(url); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (c *staticContext) VisibleText(ctx context.Context, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.body == nil {
		return "", fmt.Errorf("no page loaded")
	}
	return visibleText(c.body)
}

func (c *staticContext) Close() error {
	c.body = nil
	return nil
}

// visibleText returns the whitespace-normalised text of <body> without
// script, style and noscript content.
func visibleText(html []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func proxyURL(p model.ProxyCredential) (string, error) {
	u, err := url.Parse(p.Server)
	if err != nil {
		return "", fmt.Errorf("parse proxy server %q: %w", p.Server, err)
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u.String(), nil
}
