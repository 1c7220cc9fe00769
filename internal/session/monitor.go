package session

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Phase is the current state of the inactivity monitor.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseWarning Phase = "warning"
	PhaseExpired Phase = "expired"
)

const (
	// warningWindow is how long before forced expiry the visible warning
	// countdown runs. The countdown is derived from the expiry deadline, so
	// the two cannot drift apart.
	warningWindow = time.Minute

	// DefaultTimeout is the idle period after which a session is expired.
	DefaultTimeout = 10 * time.Minute
)

// LogoutFunc performs the external logout when a session expires. It runs to
// completion once triggered; its error is reported, not retried — the session
// is operationally over regardless.
type LogoutFunc func(ctx context.Context) error

// State is the observable snapshot the presentation layer renders.
// SecondsRemaining counts down to forced expiry; in the warning phase it
// starts at exactly 60.
type State struct {
	Phase            Phase `json:"phase"`
	SecondsRemaining int   `json:"seconds_remaining"`
}

// Monitor is a single-session inactivity state machine:
//
//	Idle → Running           on authentication
//	Running → Warning        one minute before the idle deadline
//	Warning → Running        on activity or an explicit "stay logged in"
//	Warning → Expired        when the deadline elapses, or on "logout now"
//	Expired → Idle           once the external logout completed
//	Running|Warning → Idle   on explicit logout (authentication ends)
//
// Deadlines are always measured from the most recent activity signal. Bursts
// of activity are coalesced: a signal while Running only records the
// timestamp, and the armed timers re-derive their deadlines from it when they
// fire, so at most one (warning, expire) timer pair is armed at any instant.
type Monitor struct {
	sched   Scheduler
	timeout time.Duration
	logout  LogoutFunc
	log     zerolog.Logger

	mu           sync.Mutex
	phase        Phase
	lastActivity time.Time
	armedAt      time.Time // activity timestamp the current timer pair was armed from
	gen          uint64    // arm generation; stale timer callbacks no-op
	warnTimer    Timer
	expireTimer  Timer
}

// NewMonitor creates a monitor in the Idle phase. A timeout of zero (or one
// not exceeding the warning window) falls back to DefaultTimeout.
func NewMonitor(timeout time.Duration, sched Scheduler, logout LogoutFunc, log zerolog.Logger) *Monitor {
	if timeout <= warningWindow {
		timeout = DefaultTimeout
	}
	if sched == nil {
		sched = NewScheduler()
	}
	return &Monitor{
		sched:   sched,
		timeout: timeout,
		logout:  logout,
		log:     log,
		phase:   PhaseIdle,
	}
}

// Start moves Idle → Running: authentication became true. Starting an
// already-running monitor resets its deadlines, which is harmless.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseExpired {
		return
	}
	m.lastActivity = m.sched.Now()
	m.rearmLocked()
}

// Stop moves the monitor to Idle and cancels the armed timer pair:
// authentication ended by explicit logout.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimersLocked()
	m.phase = PhaseIdle
}

// OnActivity records a user-activity signal. While Running it only stamps the
// timestamp (signals are coalesced; the armed timers re-derive deadlines from
// it). While Warning it dismisses the warning and re-arms immediately.
// Signals in Idle or Expired are ignored.
func (m *Monitor) OnActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.phase {
	case PhaseRunning:
		m.lastActivity = m.sched.Now()
	case PhaseWarning:
		m.lastActivity = m.sched.Now()
		m.rearmLocked()
	}
}

// Reset explicitly re-arms both deadlines from now, regardless of coalescing.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseRunning && m.phase != PhaseWarning {
		return
	}
	m.lastActivity = m.sched.Now()
	m.rearmLocked()
}

// StayLoggedIn is the explicit user action on the warning dialog: cancel the
// pending expiry and return to Running with fresh deadlines.
func (m *Monitor) StayLoggedIn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseWarning {
		return
	}
	m.lastActivity = m.sched.Now()
	m.rearmLocked()
}

// LogoutNow is the explicit user action that bypasses the remaining
// countdown and forces immediate expiry.
func (m *Monitor) LogoutNow() {
	m.mu.Lock()
	if m.phase != PhaseRunning && m.phase != PhaseWarning {
		m.mu.Unlock()
		return
	}
	m.expireLocked()
}

// State returns the observable phase and the seconds remaining until forced
// expiry, derived from the same deadline that drives the expiry timer.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := State{Phase: m.phase}
	if m.phase == PhaseRunning || m.phase == PhaseWarning {
		remaining := m.lastActivity.Add(m.timeout).Sub(m.sched.Now())
		secs := int(math.Ceil(remaining.Seconds()))
		if secs < 0 {
			secs = 0
		}
		st.SecondsRemaining = secs
	}
	return st
}

// rearmLocked atomically replaces the armed timer pair with one derived from
// lastActivity. The generation counter guards against a cancelled timer whose
// callback is already in flight.
func (m *Monitor) rearmLocked() {
	m.cancelTimersLocked()
	m.phase = PhaseRunning
	m.armedAt = m.lastActivity

	gen := m.gen
	now := m.sched.Now()
	warnIn := m.lastActivity.Add(m.timeout - warningWindow).Sub(now)
	expireIn := m.lastActivity.Add(m.timeout).Sub(now)
	if warnIn < 0 {
		warnIn = 0
	}
	if expireIn < 0 {
		expireIn = 0
	}

	m.warnTimer = m.sched.AfterFunc(warnIn, func() { m.warnFired(gen) })
	m.expireTimer = m.sched.AfterFunc(expireIn, func() { m.expireFired(gen) })
}

func (m *Monitor) cancelTimersLocked() {
	m.gen++
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.expireTimer != nil {
		m.expireTimer.Stop()
		m.expireTimer = nil
	}
}

func (m *Monitor) warnFired(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.phase != PhaseRunning {
		return
	}
	// Coalesced activity since arming postpones the deadline instead.
	if m.lastActivity.After(m.armedAt) {
		m.rearmLocked()
		return
	}
	m.phase = PhaseWarning
	m.log.Debug().Msg("session idle warning raised")
}

func (m *Monitor) expireFired(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || (m.phase != PhaseRunning && m.phase != PhaseWarning) {
		m.mu.Unlock()
		return
	}
	if m.lastActivity.After(m.armedAt) {
		m.rearmLocked()
		m.mu.Unlock()
		return
	}
	m.expireLocked()
}

// expireLocked performs the forced logout. It is entered with the lock held
// and at most once per authenticated session: the phase moves to Expired
// before the external logout call, so no other transition can race it, and
// to Idle after the call completed. A logout failure is reported but the
// session still ends.
func (m *Monitor) expireLocked() {
	m.cancelTimersLocked()
	m.phase = PhaseExpired
	m.mu.Unlock()

	if m.logout != nil {
		if err := m.logout(context.Background()); err != nil {
			m.log.Error().Err(err).Msg("external logout failed during session expiry")
		}
	}

	m.mu.Lock()
	m.phase = PhaseIdle
	m.mu.Unlock()
}
