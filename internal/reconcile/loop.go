// Package reconcile drives the settling sequence that bridges the delay
// between a header-trust login and session cookie propagation: poll the
// auth-status probe, retry login a bounded number of times, then navigate.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// State of the settling loop.
type State int

const (
	// StateInitializing means no status probe has resolved yet.
	StateInitializing State = iota
	// StatePolling means probes are resolving but the outcome is open.
	StatePolling
	// StateSettledAuthenticated is terminal: the server confirmed the session.
	StateSettledAuthenticated
	// StateSettledUnauthenticated is terminal: the retry budget ran out.
	StateSettledUnauthenticated
)

// Probe is the server-side view of the reconciliation.
type Probe interface {
	// AuthStatus reports whether the server currently sees the client as
	// authenticated.
	AuthStatus(ctx context.Context) (bool, error)
	// RetryLogin issues one more login attempt with a self-reported email
	// hint as fallback credential source.
	RetryLogin(ctx context.Context, emailHint string) error
}

// Navigator performs the final redirect.
type Navigator interface {
	Navigate(destination string)
}

const (
	DefaultDestination = "/home"
	DefaultLoginURL    = "/auth/login"
)

type Options struct {
	// Destination to navigate to once authenticated. Defaults to
	// DefaultDestination.
	Destination string
	// LoginURL to navigate to when the retry budget is exhausted. Defaults
	// to DefaultLoginURL.
	LoginURL string
	// MaxRetries bounds the login retry attempts. Defaults to 2.
	MaxRetries int
	// CountdownTicks is the visible countdown length. Defaults to 5.
	CountdownTicks int
	// PollEvery is the number of ticks between status probes. Defaults
	// to 2; the first probe fires on the first tick.
	PollEvery int
	// TickInterval is the real-time length of one tick. Defaults to 1s.
	TickInterval time.Duration
	// HintSource returns the best-effort email hint for the retry path,
	// typically read from the client-visible hint cookie. May be nil.
	HintSource func() string
	// Logger defaults to zap.NewNop().
	Logger *zap.Logger
}

// Loop is the reconciliation state machine. A single tick source drives
// both the countdown and the polling cadence, so no poll result can race a
// separate countdown timer; a result landing between ticks takes effect on
// the next tick.
type Loop struct {
	opts  Options
	probe Probe
	nav   Navigator

	state     State
	attempts  int
	countdown int
	ticks     int
	navigated bool
}

func New(probe Probe, nav Navigator, opts Options) *Loop {
	if opts.Destination == "" {
		opts.Destination = DefaultDestination
	}
	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginURL
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.CountdownTicks == 0 {
		opts.CountdownTicks = 5
	}
	if opts.PollEvery == 0 {
		opts.PollEvery = 2
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Loop{
		opts:      opts,
		probe:     probe,
		nav:       nav,
		state:     StateInitializing,
		countdown: opts.CountdownTicks,
	}
}

func (l *Loop) State() State   { return l.state }
func (l *Loop) Attempts() int  { return l.attempts }
func (l *Loop) Countdown() int { return l.countdown }

// Done reports whether the loop has navigated away.
func (l *Loop) Done() bool { return l.navigated }

// Tick advances the machine by one countdown unit.
func (l *Loop) Tick(ctx context.Context) {
	if l.navigated {
		return
	}

	if l.ticks%l.opts.PollEvery == 0 {
		l.poll(ctx)
	}
	l.ticks++

	if l.countdown > 0 {
		l.countdown--
	}
	if l.countdown == 0 {
		l.maybeNavigate()
	}
}

// poll asks the server for the auth state and spends one retry when it is
// still unauthenticated. Probe errors are per-attempt: they never abort the
// loop.
func (l *Loop) poll(ctx context.Context) {
	authenticated, err := l.probe.AuthStatus(ctx)
	if err != nil {
		l.opts.Logger.Warn("auth status probe failed", zap.Error(err))
		return
	}
	if l.state == StateInitializing {
		l.state = StatePolling
	}

	if authenticated {
		l.state = StateSettledAuthenticated
		return
	}

	if l.attempts >= l.opts.MaxRetries {
		l.state = StateSettledUnauthenticated
		return
	}

	if l.opts.HintSource != nil {
		if hint := l.opts.HintSource(); hint != "" {
			if err := l.probe.RetryLogin(ctx, hint); err != nil {
				l.opts.Logger.Warn("retry login failed", zap.Error(err))
			}
		}
	}
	// The attempt is spent even when no hint was available or the retry
	// call failed.
	l.attempts++
}

func (l *Loop) maybeNavigate() {
	switch l.state {
	case StateSettledAuthenticated:
		l.nav.Navigate(l.opts.Destination)
		l.navigated = true
	case StateSettledUnauthenticated:
		l.nav.Navigate(l.opts.LoginURL)
		l.navigated = true
	}
}

// Run drives the loop on a single ticker until navigation or cancellation.
// Cancelling ctx releases the ticker, so an unmounted settling page leaks
// no timers.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx)
			if l.Done() {
				return
			}
		}
	}
}
