// Package poller fetches download status on a fixed interval and hands the
// results to the bubbletea event loop as messages.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/service"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 3
	defaultBackoff     = 250 * time.Millisecond
)

// StatusFetcher is the part of service.Service the poller needs.
type StatusFetcher interface {
	GetDownloadStatus(ctx context.Context, downloadID string) (catalog.DownloadRecord, error)
}

// StatusMsg carries the result of one poll. Generation echoes the record
// generation the poll was scheduled for.
type StatusMsg struct {
	ID         string
	Generation uint64
	Record     catalog.DownloadRecord
	Err        error
	At         time.Time
}

// Poller polls download status. The zero value is not usable; use New.
type Poller struct {
	fetcher        StatusFetcher
	ctx            context.Context
	interval       time.Duration
	maxAttempts    int
	backoff        time.Duration
	stopOnTerminal bool
	now            func() time.Time
	logger         zerolog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the delay between polls. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithMaxAttempts sets the number of fetch attempts per tick, first try included.
func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial delay between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.backoff = d
		}
	}
}

// WithStopOnTerminal stops polling an id once a terminal status was fetched.
func WithStopOnTerminal(stop bool) Option {
	return func(p *Poller) { p.stopOnTerminal = stop }
}

// WithContext bounds every fetch by ctx.
func WithContext(ctx context.Context) Option {
	return func(p *Poller) { p.ctx = ctx }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New creates a Poller. Polling stops on terminal statuses unless
// WithStopOnTerminal(false) is given.
func New(f StatusFetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:        f,
		ctx:            context.Background(),
		interval:       DefaultInterval,
		maxAttempts:    DefaultMaxAttempts,
		backoff:        defaultBackoff,
		stopOnTerminal: true,
		now:            time.Now,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the delay between polls.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// StopsOnTerminal reports whether polling ends once a terminal status is fetched.
func (p *Poller) StopsOnTerminal() bool {
	return p.stopOnTerminal
}

// Fetch gets the status of id, retrying transient failures. A not-found
// failure is returned at once.
func (p *Poller) Fetch(ctx context.Context, id string) (catalog.DownloadRecord, error) {
	if id == "" {
		return catalog.DownloadRecord{}, &service.ValidationError{Field: "downloadId", Reason: "must not be empty"}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.backoff
	b.MaxInterval = p.interval
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() (catalog.DownloadRecord, error) {
		attempt++
		rec, err := p.fetcher.GetDownloadStatus(ctx, id)
		if err == nil {
			return rec, nil
		}
		if permanent(err) {
			return rec, backoff.Permanent(err)
		}
		p.logger.Debug().Err(err).Str("id", id).Int("attempt", attempt).Msg("download status fetch failed")
		return rec, err
	}

	retries := uint64(max(p.maxAttempts-1, 0))
	rec, err := backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx))
	if err != nil {
		p.logger.Warn().Err(err).Str("id", id).Int("attempts", attempt).Msg("download status unavailable")
		return catalog.DownloadRecord{}, err
	}
	return rec, nil
}

func permanent(err error) bool {
	var validation *service.ValidationError
	return errors.Is(err, service.ErrNotFound) ||
		errors.As(err, &validation) ||
		errors.Is(err, context.Canceled)
}

// Poll returns a command that fetches the status of id right away.
// It returns nil for an empty id.
func (p *Poller) Poll(id string, generation uint64) tea.Cmd {
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		return p.poll(id, generation)
	}
}

// Tick returns a command that fetches the status of id after one interval.
// It returns nil for an empty id.
func (p *Poller) Tick(id string, generation uint64) tea.Cmd {
	if id == "" {
		return nil
	}
	return tea.Tick(p.interval, func(time.Time) tea.Msg {
		return p.poll(id, generation)
	})
}

func (p *Poller) poll(id string, generation uint64) StatusMsg {
	rec, err := p.Fetch(p.ctx, id)
	return StatusMsg{ID: id, Generation: generation, Record: rec, Err: err, At: p.now()}
}

// ShouldContinue reports whether id needs another poll after msg.
func (p *Poller) ShouldContinue(msg StatusMsg) bool {
	if msg.ID == "" || permanent(msg.Err) {
		return false
	}
	if msg.Err == nil && p.stopOnTerminal && msg.Record.Status.IsTerminal() {
		return false
	}
	return true
}

// Next schedules the poll following msg, or returns nil when polling stops.
func (p *Poller) Next(msg StatusMsg) tea.Cmd {
	if !p.ShouldContinue(msg) {
		return nil
	}
	return p.Tick(msg.ID, msg.Generation)
}
