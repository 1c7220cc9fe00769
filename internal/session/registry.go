package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clubpedal/members-system/internal/api/metrics"
)

// LogoutHandler performs the external logout for one principal (revoking
// tokens, etc.).
type LogoutHandler func(ctx context.Context, username string) error

// Registry holds at most one inactivity monitor per authenticated principal.
// Monitors are created on login and fully torn down when the session ends —
// by explicit logout or by forced expiry — so timers never leak across
// sessions.
type Registry struct {
	sched   Scheduler
	timeout time.Duration
	logout  LogoutHandler
	log     zerolog.Logger

	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewRegistry(timeout time.Duration, sched Scheduler, logout LogoutHandler, log zerolog.Logger) *Registry {
	if sched == nil {
		sched = NewScheduler()
	}
	return &Registry{
		sched:    sched,
		timeout:  timeout,
		logout:   logout,
		log:      log,
		monitors: make(map[string]*Monitor),
	}
}

// Start creates (or restarts) the monitor for username and moves it to
// Running. Called when authentication becomes true.
func (r *Registry) Start(username string) *Monitor {
	r.mu.Lock()
	m, ok := r.monitors[username]
	if !ok {
		m = NewMonitor(r.timeout, r.sched, r.logoutFunc(username), r.log.With().Str("session_user", username).Logger())
		r.monitors[username] = m
		metrics.SessionMonitorsActive.Inc()
	}
	r.mu.Unlock()

	m.Start()
	return m
}

// Get returns the monitor for username, if one is attached.
func (r *Registry) Get(username string) (*Monitor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monitors[username]
	return m, ok
}

// Stop tears down the monitor for username: authentication ended.
func (r *Registry) Stop(username string) {
	r.mu.Lock()
	m, ok := r.monitors[username]
	if ok {
		delete(r.monitors, username)
		metrics.SessionMonitorsActive.Dec()
	}
	r.mu.Unlock()

	if ok {
		m.Stop()
	}
}

// Count reports the number of attached monitors.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.monitors)
}

// logoutFunc builds the LogoutFunc for one principal: run the external
// logout, count the expiry, and detach the monitor so nothing lingers.
func (r *Registry) logoutFunc(username string) LogoutFunc {
	return func(ctx context.Context) error {
		metrics.SessionExpirationsTotal.Inc()

		var err error
		if r.logout != nil {
			err = r.logout(ctx, username)
		}

		r.mu.Lock()
		if _, ok := r.monitors[username]; ok {
			delete(r.monitors, username)
			metrics.SessionMonitorsActive.Dec()
		}
		r.mu.Unlock()

		return err
	}
}
