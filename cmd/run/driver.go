// Package run wires the configuration, session pool, fan-out engine, and
// operator console into the run subcommand.
package run

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/pollherd/pollherd/classroom"
	"github.com/pollherd/pollherd/config"
	"github.com/pollherd/pollherd/scrape"
	"github.com/pollherd/pollherd/swarm"
	"github.com/rs/zerolog"
)

const (
	studentPath = "/student"

	// debugPreviewLen bounds how much page body the debug command prints.
	debugPreviewLen = 800
	// debugCookieLen bounds how much of a cookie value the debug command prints.
	debugCookieLen = 20
)

// driver is the concrete console.Driver: it routes console commands to the
// fan-out engine, provisioner, and reconciler, and keeps a broadcast watch
// pinned to the oldest pooled session.
type driver struct {
	cfg         *config.Harness
	base        string
	pool        *swarm.Pool
	fanout      *swarm.Fanout
	provisioner *swarm.Provisioner
	reconciler  *classroom.Reconciler
	logger      zerolog.Logger

	watchMu sync.Mutex
	watched *swarm.Session
	unwatch func()
}

func newDriver(
	cfg *config.Harness,
	pool *swarm.Pool,
	fanout *swarm.Fanout,
	provisioner *swarm.Provisioner,
	reconciler *classroom.Reconciler,
	logger zerolog.Logger,
) *driver {
	return &driver{
		cfg:         cfg,
		base:        strings.TrimRight(cfg.TargetURL, "/"),
		pool:        pool,
		fanout:      fanout,
		provisioner: provisioner,
		reconciler:  reconciler,
		logger:      logger.With().Str("component", "driver").Logger(),
	}
}

// ensureWatch keeps the broadcast state watch on the pool's oldest session,
// rebinding after membership changes. With an empty pool no watch is held.
func (d *driver) ensureWatch() {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()

	first := d.pool.First()
	if first == d.watched {
		return
	}
	if d.unwatch != nil {
		d.unwatch()
		d.unwatch = nil
	}
	d.watched = first
	if first != nil && first.Channel != nil {
		d.unwatch = d.reconciler.Watch(first.Channel)
		d.logger.Debug().Str("session", first.Name).Msg("watching broadcasts")
	}
}

func (d *driver) Vote(optionID string) swarm.Tally { return d.fanout.Vote(optionID) }

func (d *driver) SingleVote(optionID string) error { return d.fanout.SingleVote(optionID) }

func (d *driver) RandomVote(options []string) (swarm.Tally, error) {
	return d.fanout.RandomVote(options)
}

func (d *driver) RandomAction(ctx context.Context) swarm.Tally { return d.fanout.RandomAction(ctx) }

func (d *driver) BreakRequest(count int) swarm.Tally { return d.fanout.BreakRequest(count) }

func (d *driver) HelpRequest(count int) swarm.Tally { return d.fanout.HelpRequest(count) }

func (d *driver) Leave(count int) int {
	removed := d.fanout.Leave(count)
	d.ensureWatch()
	return removed
}

func (d *driver) More(ctx context.Context, count int) int {
	added := d.provisioner.Provision(ctx, count)
	d.ensureWatch()
	return added
}

// PollOptions scrapes the live poll controls from the first session's
// dashboard page.
func (d *driver) PollOptions(ctx context.Context) ([]scrape.Option, error) {
	s, resp, err := d.studentPage(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("student page returned status %d for %s", resp.StatusCode, s.Name)
	}
	return scrape.ExtractPollOptions(resp.Body)
}

// Debug dumps the first session's dashboard response and credentials.
func (d *driver) Debug(ctx context.Context, w io.Writer) error {
	s, resp, err := d.studentPage(ctx)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read student page: %w", err)
	}

	fmt.Fprintf(w, "=== DEBUG: Student page for %s ===\n", s.Name)
	fmt.Fprintf(w, "Status: %d\n", resp.StatusCode)
	fmt.Fprintf(w, "Content-Type: %s\n", resp.Header.Get("Content-Type"))
	fmt.Fprintf(w, "Content length: %d\n", len(body))
	fmt.Fprintf(w, "Content preview: %s\n", truncate(string(body), debugPreviewLen))
	cookies := s.Cookies()
	fmt.Fprintf(w, "Session cookies: %d cookies\n", len(cookies))
	for _, c := range cookies {
		fmt.Fprintf(w, "  %s=%s...\n", c.Name, truncate(c.Value, debugCookieLen))
	}
	fmt.Fprintln(w, "=== END DEBUG ===")
	return nil
}

// TestConnectivity probes the target with a fresh unauthenticated client:
// the base URL first, then the student dashboard.
func (d *driver) TestConnectivity(ctx context.Context, w io.Writer) error {
	client := &http.Client{}

	fmt.Fprintln(w, "Testing server connectivity...")
	for _, path := range []string{"", studentPath} {
		url := d.base + path
		resp, err := d.get(ctx, client, url)
		if err != nil {
			return fmt.Errorf("get %s: %w", url, err)
		}
		resp.Body.Close()
		fmt.Fprintf(w, "  %s -> %d\n", url, resp.StatusCode)
	}
	fmt.Fprintln(w, "Server connectivity: OK")
	return nil
}

// ClassData fetches the administrative roster through the teacher API.
func (d *driver) ClassData(ctx context.Context) ([]byte, error) {
	return classroom.FetchRoster(ctx, &http.Client{}, d.base, d.cfg.ClassIDNumber, d.cfg.TeacherAPIKey)
}

// Students asks the server for the live state over the first session's
// channel and lists the connected display names.
func (d *driver) Students(ctx context.Context) ([]string, error) {
	s := d.pool.First()
	if s == nil {
		return nil, fmt.Errorf("no active sessions")
	}
	if s.Channel == nil {
		return nil, swarm.ErrChannelAbsent
	}
	state, err := d.reconciler.Refresh(ctx, s.Channel)
	if err != nil {
		return nil, err
	}
	return state.StudentNames(), nil
}

// studentPage fetches the dashboard with the first session's credentials.
func (d *driver) studentPage(ctx context.Context) (*swarm.Session, *http.Response, error) {
	s := d.pool.First()
	if s == nil {
		return nil, nil, fmt.Errorf("no active sessions")
	}
	resp, err := d.get(ctx, s.HTTP, d.base+studentPath)
	if err != nil {
		return nil, nil, fmt.Errorf("get student page: %w", err)
	}
	return s, resp, nil
}

func (d *driver) get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
