package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/jonboulle/clockwork"
)

// DefaultHoldWindow mirrors the backend's hold expiry of five minutes.
const DefaultHoldWindow = 300 * time.Second

type HoldState int

const (
	HoldStateIdle HoldState = iota
	HoldStateHolding
	HoldStateConfirmed
	HoldStateReleased
)

func (s HoldState) String() string {
	switch s {
	case HoldStateIdle:
		return "idle"
	case HoldStateHolding:
		return "holding"
	case HoldStateConfirmed:
		return "confirmed"
	case HoldStateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// HoldController converts a seat selection into a time-boxed exclusive claim
// and guarantees the claim is released on every exit path. Transitions out of
// Holding happen exactly once: the countdown, Cancel and Confirm all check
// the state under the same lock, so whichever fires first suppresses the
// others. No release is issued after a confirm, and no second release after a
// cancel or timeout.
type HoldController struct {
	backend domain.Backend
	clock   clockwork.Clock
	logger  *slog.Logger
	window  time.Duration

	mu         sync.Mutex
	state      HoldState
	remaining  int
	requesting bool
	stop       chan struct{}
	onExpired  func()
}

func NewHoldController(backend domain.Backend, clock clockwork.Clock, logger *slog.Logger, window time.Duration) *HoldController {
	if window <= 0 {
		window = DefaultHoldWindow
	}

	return &HoldController{
		backend: backend,
		clock:   clock,
		logger:  logger,
		window:  window,
		state:   HoldStateIdle,
	}
}

// OnExpired registers a callback fired after the countdown reaches zero and
// the release has been issued. Must be set before RequestHold.
func (c *HoldController) OnExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onExpired = fn
}

func (c *HoldController) State() HoldState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// TimeRemaining returns the local countdown mirror in seconds. The backend
// owns the authoritative expiry.
func (c *HoldController) TimeRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.remaining
}

// RequestHold asks the backend to hold the given seats and, on success,
// starts the one-second-tick countdown. Valid only from Idle. The countdown
// never starts before the hold call has resolved. On failure the controller
// stays Idle and the caller may retry.
func (c *HoldController) RequestHold(ctx context.Context, showtimeID int, seatIDs []int) error {
	if len(seatIDs) == 0 {
		return domain.ErrNoSeatsSelected
	}

	c.mu.Lock()
	if c.state != HoldStateIdle || c.requesting {
		c.mu.Unlock()
		return domain.ErrHoldAlreadyExists
	}
	c.requesting = true
	c.mu.Unlock()

	err := c.backend.CreateHold(ctx, domain.HoldRequest{ShowtimeID: showtimeID, SeatIDs: seatIDs})

	c.mu.Lock()
	defer c.mu.Unlock()

	c.requesting = false

	if err != nil {
		return fmt.Errorf("could not hold seats: %w", err)
	}

	c.state = HoldStateHolding
	c.remaining = int(c.window.Seconds())
	c.stop = make(chan struct{})

	go c.countdown(c.stop)

	return nil
}

func (c *HoldController) countdown(stop <-chan struct{}) {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if c.Tick() {
				return
			}
		}
	}
}

// Tick advances the countdown by one second and reports whether the
// controller has resolved. When the countdown reaches zero the timeout path
// runs: the release is issued best-effort exactly once and the registered
// expiry callback fires. Exposed so tests can simulate time passage without a
// running ticker.
func (c *HoldController) Tick() bool {
	c.mu.Lock()

	if c.state != HoldStateHolding {
		c.mu.Unlock()
		return true
	}

	c.remaining--
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}

	c.remaining = 0
	c.state = HoldStateReleased
	c.stopCountdown()
	onExpired := c.onExpired
	c.mu.Unlock()

	c.logger.Warn("seat hold expired, releasing seats")
	c.release(context.Background())

	if onExpired != nil {
		onExpired()
	}

	return true
}

// Cancel abandons the hold: it stops the countdown and issues the release.
// Idempotent; once the controller has left Holding by any path, Cancel does
// nothing.
func (c *HoldController) Cancel(ctx context.Context) {
	c.mu.Lock()

	if c.state != HoldStateHolding {
		c.mu.Unlock()
		return
	}

	c.state = HoldStateReleased
	c.stopCountdown()
	c.mu.Unlock()

	c.release(ctx)
}

// Confirm marks the hold as consumed by a successful booking. The countdown
// stops without a release call, since the backend converted the hold into a
// booking. Valid only from Holding.
func (c *HoldController) Confirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != HoldStateHolding {
		return domain.ErrHoldNotActive
	}

	c.state = HoldStateConfirmed
	c.stopCountdown()

	return nil
}

// Reset returns a resolved controller to Idle so a fresh hold can be
// requested. No-op while a hold is still active.
func (c *HoldController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == HoldStateHolding {
		return
	}

	c.state = HoldStateIdle
	c.remaining = 0
}

// stopCountdown must be called with the lock held.
func (c *HoldController) stopCountdown() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// release is best-effort: a failure here is logged and never surfaced,
// because the backend's own expiry reclaims the seats regardless.
func (c *HoldController) release(ctx context.Context) {
	err := c.backend.ReleaseHold(ctx)
	if err != nil {
		c.logger.Error("failed to release seat hold", "error", err)
	}
}
