package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobscout/internal/browser"
	"github.com/amishk599/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedFetcher returns the n-th scripted response on the n-th call and
// repeats the last one afterwards.
type scriptedFetcher struct {
	responses []fetchResponse
	calls     []browser.Options
}

type fetchResponse struct {
	text string
	err  error
}

func (f *scriptedFetcher) FetchVisibleText(_ context.Context, _ string, opts browser.Options) (string, error) {
	f.calls = append(f.calls, opts)
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i].text, f.responses[i].err
}

type fixedProxies struct {
	draws int
	cred  *model.ProxyCredential
}

func (p *fixedProxies) Draw() *model.ProxyCredential {
	p.draws++
	return p.cred
}

type sleepRecorder struct {
	durations []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return nil
}

func newTestEngine(f browser.Fetcher, p ProxySource, maxRetries int) (*Engine, *sleepRecorder) {
	cfg := DefaultConfig()
	cfg.MaxRetries = maxRetries
	e := NewEngine(f, p, cfg, discardLogger())
	rec := &sleepRecorder{}
	e.sleep = rec.sleep
	return e, rec
}

var posting = model.JobRecord{
	Title:       "Backend Engineer",
	CompanyName: "Acme",
	Location:    "Berlin",
	URL:         "https://jobs.test/42",
	Status:      model.StatusPending,
}

func TestEnrich_NoURLPassesThrough(t *testing.T) {
	f := &scriptedFetcher{responses: []fetchResponse{{text: "unused"}}}
	e, rec := newTestEngine(f, nil, 3)
	job := model.JobRecord{Title: "No link", CompanyName: "Acme", Status: model.StatusPending}

	got := e.Enrich(context.Background(), job)

	assert.Equal(t, job, got)
	assert.Empty(t, f.calls)
	assert.Empty(t, rec.durations)
}

func TestEnrich_SuccessFirstAttempt(t *testing.T) {
	f := &scriptedFetcher{responses: []fetchResponse{{text: "  Great job posting, contact hr@company.com \n"}}}
	e, rec := newTestEngine(f, nil, 3)

	got := e.Enrich(context.Background(), posting)

	assert.Equal(t, model.StatusScraped, got.Status)
	assert.Equal(t, "Great job posting, contact hr@company.com", got.Description)
	assert.Equal(t, "hr@company.com", got.Email)
	assert.Equal(t, posting.URL, got.URL)
	assert.Len(t, f.calls, 1)
	assert.Empty(t, rec.durations)
	assert.Equal(t, model.StatusPending, posting.Status, "input record must not be mutated")
}

func TestEnrich_SkipsPlaceholderEmail(t *testing.T) {
	f := &scriptedFetcher{responses: []fetchResponse{{text: "write a@example.com or b@real.org"}}}
	e, _ := newTestEngine(f, nil, 3)

	got := e.Enrich(context.Background(), posting)
	assert.Equal(t, "b@real.org", got.Email)
}

func TestEnrich_AttemptsBoundedAndNoBackoffAfterLast(t *testing.T) {
	for _, maxRetries := range []int{1, 2, 3, 5} {
		f := &scriptedFetcher{responses: []fetchResponse{{err: browser.ErrNavigationTimeout}}}
		e, rec := newTestEngine(f, nil, maxRetries)

		got := e.Enrich(context.Background(), posting)

		assert.Len(t, f.calls, maxRetries, "attempts for max=%d", maxRetries)
		assert.Len(t, rec.durations, maxRetries-1, "sleeps for max=%d", maxRetries)
		assert.Equal(t, model.StatusFailedAfterRetries, got.Status)
		assert.Equal(t, model.SentinelFailed, got.Description)
		assert.Equal(t, posting.URL, got.URL)
	}
}

func TestEnrich_BackoffWithinRange(t *testing.T) {
	f := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("net::ERR_CONNECTION_RESET")}}}
	e, rec := newTestEngine(f, nil, 3)
	e.backoff = uniform

	e.Enrich(context.Background(), posting)

	require.Len(t, rec.durations, 2)
	for _, d := range rec.durations {
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 5*time.Second)
	}
}

func TestEnrich_AlwaysBlocked(t *testing.T) {
	f := &scriptedFetcher{responses: []fetchResponse{{text: "Access Denied. Reference #18.abc"}}}
	e, rec := newTestEngine(f, nil, 3)

	got := e.Enrich(context.Background(), posting)

	assert.Equal(t, model.StatusBlocked, got.Status)
	assert.Equal(t, model.SentinelBlocked, got.Description)
	assert.Empty(t, got.Email)
	assert.Len(t, f.calls, 3)
	assert.Len(t, rec.durations, 2)
}

func TestEnrich_RecoversAfterBlock(t *testing.T) {
	f := &scriptedFetcher{responses: []fetchResponse{
		{text: "We detected suspicious behaviour from your browser"},
		{text: "Real posting text"},
	}}
	e, _ := newTestEngine(f, nil, 3)

	got := e.Enrich(context.Background(), posting)

	assert.Equal(t, model.StatusScraped, got.Status)
	assert.Equal(t, "Real posting text", got.Description)
	assert.Len(t, f.calls, 2)
}

func TestEnrich_FinalStatusFollowsLastOutcome(t *testing.T) {
	blockedThenFailed := &scriptedFetcher{responses: []fetchResponse{
		{text: "access denied"},
		{err: browser.ErrReadTimeout},
	}}
	e, _ := newTestEngine(blockedThenFailed, nil, 2)
	assert.Equal(t, model.StatusFailedAfterRetries, e.Enrich(context.Background(), posting).Status)

	failedThenBlocked := &scriptedFetcher{responses: []fetchResponse{
		{err: browser.ErrReadTimeout},
		{text: "access denied"},
	}}
	e, _ = newTestEngine(failedThenBlocked, nil, 2)
	assert.Equal(t, model.StatusBlocked, e.Enrich(context.Background(), posting).Status)
}

func TestEnrich_DrawsProxyAndIdentityPerAttempt(t *testing.T) {
	cred := &model.ProxyCredential{Server: "http://10.0.0.1:8000", Location: "US - N/A"}
	proxies := &fixedProxies{cred: cred}
	f := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("x")}}}
	e, _ := newTestEngine(f, proxies, 3)

	e.Enrich(context.Background(), posting)

	assert.Equal(t, 3, proxies.draws)
	for _, opts := range f.calls {
		assert.Equal(t, cred, opts.Proxy)
		assert.NotEmpty(t, opts.UserAgent)
		assert.Less(t, opts.NavigationTimeout, opts.ReadTimeout)
		assert.Equal(t, browser.DefaultViewport, opts.Viewport)
		assert.Equal(t, browser.DefaultAcceptLanguage, opts.AcceptLanguage)
	}
}

func TestEnrich_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &scriptedFetcher{responses: []fetchResponse{{err: errors.New("x")}}}
	e, _ := newTestEngine(f, nil, 3)
	e.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	got := e.Enrich(ctx, posting)

	assert.Len(t, f.calls, 1)
	assert.Equal(t, model.StatusFailedAfterRetries, got.Status)
}

type denyingHosts struct{ calls int }

func (h *denyingHosts) WaitURL(_ context.Context, _ string) error {
	h.calls++
	return context.DeadlineExceeded
}

func TestEnrich_HostLimiterFailureCountsAsFailedAttempt(t *testing.T) {
	hosts := &denyingHosts{}
	f := &scriptedFetcher{responses: []fetchResponse{{text: "never"}}}
	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	e := NewEngine(f, nil, cfg, discardLogger(), WithHostLimiter(hosts))
	e.sleep = func(context.Context, time.Duration) error { return nil }

	got := e.Enrich(context.Background(), posting)

	assert.Equal(t, 2, hosts.calls)
	assert.Empty(t, f.calls)
	assert.Equal(t, model.StatusFailedAfterRetries, got.Status)
}
