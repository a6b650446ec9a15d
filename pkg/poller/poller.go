package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mariner3d/marinerctl/api"
)

const (
	DefaultInterval    = 60 * time.Second
	DefaultSettleDelay = 250 * time.Millisecond
)

// Fetcher returns a fresh status snapshot.
type Fetcher interface {
	PrintStatus(ctx context.Context) (*api.PrintStatus, error)
}

type Config struct {
	// Interval between regular fetches.
	Interval time.Duration
	// SettleDelay is how long Refresh waits before fetching, so the server
	// has applied the command that triggered it.
	SettleDelay time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, SettleDelay: DefaultSettleDelay}
}

// Result is the outcome of one fetch. Exactly one of Status and Err is set.
type Result struct {
	Status    *api.PrintStatus
	Err       error
	FetchedAt time.Time
}

// Fatal reports whether the result stops polling.
func (r Result) Fatal() bool {
	return errors.Is(r.Err, api.ErrUnknownState)
}

// Poller fetches the printer status on an interval and on demand.
type Poller struct {
	fetcher Fetcher
	cfg     Config

	refresh chan struct{}
	results chan Result

	mu     sync.RWMutex
	latest *Result
}

// New creates a poller. Zero config values fall back to the defaults.
func New(fetcher Fetcher, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	return &Poller{
		fetcher: fetcher,
		cfg:     cfg,
		refresh: make(chan struct{}, 1),
		results: make(chan Result, 1),
	}
}

// Run fetches immediately, then on every tick and after every Refresh, until
// ctx is done. It returns nil on cancellation and the fetch error when the
// printer reports a state this client does not know.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.fetch(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	var settle *time.Timer
	var settleC <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Status poller stopped")
			return nil
		case <-ticker.C:
			if err := p.fetch(ctx); err != nil {
				return err
			}
		case <-p.refresh:
			// Repeated refreshes within the settle window collapse into one fetch.
			if settle == nil {
				settle = time.NewTimer(p.cfg.SettleDelay)
			} else {
				settle.Reset(p.cfg.SettleDelay)
			}
			settleC = settle.C
		case <-settleC:
			settleC = nil
			if err := p.fetch(ctx); err != nil {
				return err
			}
		}
	}
}

// Refresh schedules one fetch after the settle delay. It never blocks.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Results streams fetch outcomes. Only the newest unread result is kept.
func (p *Poller) Results() <-chan Result {
	return p.results
}

// Latest returns the most recent result. ok is false while loading.
func (p *Poller) Latest() (Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Result{}, false
	}
	return *p.latest, true
}

func (p *Poller) fetch(ctx context.Context) error {
	status, err := p.fetcher.PrintStatus(ctx)
	if ctx.Err() != nil {
		return nil
	}

	r := Result{Status: status, Err: err, FetchedAt: time.Now()}
	if err != nil {
		r.Status = nil
		slog.Warn("Failed to fetch print status", "error", err)
	}
	p.publish(r)

	if r.Fatal() {
		return err
	}
	return nil
}

func (p *Poller) publish(r Result) {
	p.mu.Lock()
	p.latest = &r
	p.mu.Unlock()

	select {
	case <-p.results:
	default:
	}
	select {
	case p.results <- r:
	default:
	}
}
