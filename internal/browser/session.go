package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/amishk599/jobscout/internal/model"
)

var (
	// ErrNavigationTimeout means the page did not reach DOMContentLoaded in time.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrReadTimeout means the page loaded but its text could not be read in time.
	ErrReadTimeout = errors.New("reading page text timed out")
)

// Stage names the step of a fetch that failed.
type Stage string

const (
	StageContext  Stage = "context"
	StageNavigate Stage = "navigate"
	StageRead     Stage = "read"
)

// FetchError describes a failed fetch. Timeouts unwrap to ErrNavigationTimeout
// or ErrReadTimeout.
type FetchError struct {
	Stage Stage
	URL   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Viewport is the window size reported to the page.
type Viewport struct {
	Width  int
	Height int
}

// ContextOptions configures one isolated browsing context.
type ContextOptions struct {
	UserAgent string
	Viewport  Viewport
	Headers   map[string]string
	Locale    string
	Proxy     *model.ProxyCredential // nil = direct connection
}

// Browser creates isolated browsing contexts.
type Browser interface {
	NewContext(opts ContextOptions) (Context, error)
	Close() error
}

// Context is one isolated browsing context holding a single page.
type Context interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	VisibleText(ctx context.Context, timeout time.Duration) (string, error)
	Close() error
}

// Options configures a single FetchVisibleText call.
type Options struct {
	NavigationTimeout time.Duration
	ReadTimeout       time.Duration
	UserAgent         string
	Viewport          Viewport
	AcceptLanguage    string
	Proxy             *model.ProxyCredential
}

// Fetcher retrieves the rendered visible text of a page.
type Fetcher interface {
	FetchVisibleText(ctx context.Context, url string, opts Options) (string, error)
}

// Session fetches pages through a Browser, opening a fresh context per fetch.
type Session struct {
	browser Browser
	logger  *slog.Logger
}

// NewSession creates a Session on top of b.
func NewSession(b Browser, logger *slog.Logger) *Session {
	return &Session{browser: b, logger: logger}
}

// FetchVisibleText opens a context with opts, navigates to url waiting for
// DOMContentLoaded within NavigationTimeout, and reads the body text within
// ReadTimeout. The context is closed exactly once before returning, whatever
// the outcome. It does not retry.
func (s *Session) FetchVisibleText(ctx context.Context, url string, opts Options) (string, error) {
	headers := map[string]string{}
	if opts.AcceptLanguage != "" {
		headers["Accept-Language"] = opts.AcceptLanguage
	}
	bctx, err := s.browser.NewContext(ContextOptions{
		UserAgent: opts.UserAgent,
		Viewport:  opts.Viewport,
		Headers:   headers,
		Locale:    localeFromAcceptLanguage(opts.AcceptLanguage),
		Proxy:     opts.Proxy,
	})
	if err != nil {
		return "", &FetchError{Stage: StageContext, URL: url, Err: err}
	}
	defer func() {
		if cerr := bctx.Close(); cerr != nil {
			s.logger.Warn("failed to close browser context", "url", url, "error", cerr)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, opts.NavigationTimeout)
	err = bctx.Navigate(navCtx, url, opts.NavigationTimeout)
	cancel()
	if err != nil {
		return "", classify(ctx, StageNavigate, url, err, ErrNavigationTimeout)
	}

	readCtx, cancel := context.WithTimeout(ctx, opts.ReadTimeout)
	text, err := bctx.VisibleText(readCtx, opts.ReadTimeout)
	cancel()
	if err != nil {
		return "", classify(ctx, StageRead, url, err, ErrReadTimeout)
	}

	return text, nil
}

func classify(parent context.Context, stage Stage, url string, err, timeoutErr error) error {
	if parent.Err() != nil {
		return &FetchError{Stage: stage, URL: url, Err: parent.Err()}
	}
	if isTimeout(err) {
		return &FetchError{Stage: stage, URL: url, Err: fmt.Errorf("%w: %v", timeoutErr, err)}
	}
	return &FetchError{Stage: stage, URL: url, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, playwright.ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
