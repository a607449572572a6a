// Package reconciler polls subscription status after a payment until the
// store reflects it, without hammering the backend.
//
// Every trigger (timer, focus, visibility, explicit refresh) funnels into
// Refresh, which shares one rate limiter and one in-flight flag. A refresh
// that arrives while a fetch is running, or too soon after the previous
// fetch started, is dropped rather than queued.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finance-app-go/pkg/logger"
)

const (
	TierIndividual   = "Individual"
	TierPremium      = "Premium"
	TierOrganization = "Organization"
)

var ErrDegraded = errors.New("subscription status unavailable, using default tier")

type Status struct {
	Tier            string     `json:"subscription_tier"`
	Subscribed      bool       `json:"subscribed"`
	SubscriptionEnd *time.Time `json:"subscription_end"`
}

func DefaultStatus() Status {
	return Status{Tier: TierIndividual, Subscribed: false}
}

// Source reads subscription status. A nil status with a nil error means no
// record exists.
type Source interface {
	FetchStatus(ctx context.Context) (*Status, error)
	CheckStatus(ctx context.Context) (*Status, error)
}

type State int

const (
	StateIdle State = iota
	StateFetching
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateSettled:
		return "settled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	OriginPrimary  = "primary"
	OriginFallback = "fallback"
	OriginDefault  = "default"
)

type Snapshot struct {
	State     State
	Status    Status
	Origin    string
	Err       error
	Retries   int
	LastFetch time.Time
}

func (s Snapshot) Degraded() bool {
	return errors.Is(s.Err, ErrDegraded)
}

type Config struct {
	MinInterval time.Duration
	ForcedDelay time.Duration
	MaxRetries  int
	Backoff     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MinInterval: 10 * time.Second,
		ForcedDelay: 3 * time.Second,
		MaxRetries:  3,
		Backoff:     time.Second,
	}
}

type Option func(*Reconciler)

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithSleep replaces the context aware wait used for the forced delay and
// for backoff.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Reconciler) { r.sleep = sleep }
}

func WithLogger(log logger.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithOnSettle registers a callback invoked after every settled cycle.
func WithOnSettle(fn func(Snapshot)) Option {
	return func(r *Reconciler) { r.onSettle = fn }
}

type Reconciler struct {
	source   Source
	cfg      Config
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	log      logger.Logger
	onSettle func(Snapshot)
	notify   chan struct{}

	mu        sync.Mutex
	state     State
	fetching  bool
	lastFetch time.Time
	retries   int
	current   Snapshot
}

func New(source Source, cfg Config, opts ...Option) *Reconciler {
	defaults := DefaultConfig()
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaults.MinInterval
	}
	if cfg.ForcedDelay < 0 {
		cfg.ForcedDelay = 0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}

	r := &Reconciler{
		source: source,
		cfg:    cfg,
		now:    time.Now,
		sleep:  sleepContext,
		log:    logger.Discard(),
		notify: make(chan struct{}, 1),
		current: Snapshot{
			State:  StateIdle,
			Status: DefaultStatus(),
			Origin: OriginDefault,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot returns the last known state without triggering a fetch.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.current
	snap.State = r.state
	snap.Retries = r.retries
	snap.LastFetch = r.lastFetch
	return snap
}

// Refresh runs one fetch cycle and returns the settled snapshot. It reports
// false when the call was dropped by the limiter or because a fetch is in
// flight; the returned snapshot is then the previous one.
//
// A forced refresh bypasses the limiter, waits ForcedDelay for the webhook to
// land and starts with the retry counter at zero.
func (r *Reconciler) Refresh(ctx context.Context, force bool) (Snapshot, bool) {
	r.mu.Lock()
	if r.fetching {
		r.mu.Unlock()
		r.log.Debug("reconciler.refresh: dropped, fetch in flight", "force", force)
		return r.Snapshot(), false
	}
	if !force && !r.lastFetch.IsZero() && r.now().Sub(r.lastFetch) < r.cfg.MinInterval {
		r.mu.Unlock()
		r.log.Debug("reconciler.refresh: dropped by rate limit")
		return r.Snapshot(), false
	}
	r.fetching = true
	r.state = StateFetching
	if force {
		r.retries = 0
	}
	r.mu.Unlock()

	if force && r.cfg.ForcedDelay > 0 {
		if err := r.sleep(ctx, r.cfg.ForcedDelay); err != nil {
			r.mu.Lock()
			r.fetching = false
			r.state = r.current.State
			r.mu.Unlock()
			return r.Snapshot(), false
		}
	}

	r.mu.Lock()
	r.lastFetch = r.now()
	exhausted := r.retries >= r.cfg.MaxRetries
	r.mu.Unlock()

	var snap Snapshot
	if exhausted {
		snap = r.probe(ctx)
	} else {
		snap = r.cycle(ctx)
	}

	r.mu.Lock()
	snap.State = StateSettled
	snap.Retries = r.retries
	snap.LastFetch = r.lastFetch
	r.current = snap
	r.state = StateSettled
	r.fetching = false
	r.mu.Unlock()

	if snap.Err != nil {
		r.log.Warn("reconciler.refresh: settled on default", "err", snap.Err, "retries", snap.Retries)
	} else {
		r.log.Info("reconciler.refresh: settled", "tier", snap.Status.Tier, "subscribed", snap.Status.Subscribed, "origin", snap.Origin)
	}
	if r.onSettle != nil {
		r.onSettle(snap)
	}
	return snap, true
}

// cycle alternates primary and fallback reads with exponential backoff until
// one succeeds or the retry budget is spent.
func (r *Reconciler) cycle(ctx context.Context) Snapshot {
	for {
		status, err := r.source.FetchStatus(ctx)
		if err == nil {
			return r.settled(status, OriginPrimary)
		}
		retries := r.bumpRetries()
		r.log.Warn("reconciler.fetch: primary read failed", "err", err, "retry", retries)

		status, fallbackErr := r.source.CheckStatus(ctx)
		if fallbackErr == nil {
			return r.settled(status, OriginFallback)
		}
		r.log.Warn("reconciler.fetch: fallback read failed", "err", fallbackErr, "retry", retries)

		if retries >= r.cfg.MaxRetries {
			return degraded(errors.Join(err, fallbackErr))
		}

		wait := r.cfg.Backoff << (retries - 1)
		if err := r.sleep(ctx, wait); err != nil {
			return degraded(err)
		}
	}
}

// probe is the single primary read made once retries are exhausted.
func (r *Reconciler) probe(ctx context.Context) Snapshot {
	status, err := r.source.FetchStatus(ctx)
	if err != nil {
		return degraded(err)
	}
	return r.settled(status, OriginPrimary)
}

func (r *Reconciler) settled(status *Status, origin string) Snapshot {
	r.mu.Lock()
	r.retries = 0
	r.mu.Unlock()

	if status == nil {
		return Snapshot{Status: DefaultStatus(), Origin: origin}
	}
	result := *status
	if result.Tier == "" {
		result.Tier = TierIndividual
	}
	return Snapshot{Status: result, Origin: origin}
}

func (r *Reconciler) bumpRetries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
	return r.retries
}

func degraded(cause error) Snapshot {
	return Snapshot{
		Status: DefaultStatus(),
		Origin: OriginDefault,
		Err:    fmt.Errorf("%w: %w", ErrDegraded, cause),
	}
}

// Notify asks the running loop for a non-forced refresh. Extra notifications
// while one is pending are coalesced.
func (r *Reconciler) Notify() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Run triggers a non-forced refresh every interval and on Notify until ctx is
// done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			r.Refresh(ctx, false)
		case <-r.notify:
			r.Refresh(ctx, false)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
