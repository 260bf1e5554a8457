package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cinemovie/booking-flow/internal/domain"
	appvalidator "github.com/cinemovie/booking-flow/internal/validator"
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

type Step int

const (
	StepSeatSelection Step = iota + 1
	StepPayment
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepSeatSelection:
		return "seat selection"
	case StepPayment:
		return "payment"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

type Options struct {
	Logger     *slog.Logger
	Clock      clockwork.Clock
	HoldWindow time.Duration
}

// Session drives one booking flow end to end: choose a showtime, pick seats,
// hold them, pay. Data flows strictly one direction, selection to hold to
// booking; the session owns all three pieces for the duration of a single
// browsing session.
type Session struct {
	backend  domain.Backend
	logger   *slog.Logger
	validate *validator.Validate

	selection *Selection
	hold      *HoldController
	finalizer *Finalizer

	mu       sync.Mutex
	step     Step
	film     *domain.Film
	theater  domain.Theater
	showtime domain.Showtime
	expired  bool
}

func NewSession(backend domain.Backend, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	hold := NewHoldController(backend, clock, logger, opts.HoldWindow)

	session := &Session{
		backend:   backend,
		logger:    logger,
		validate:  appvalidator.NewValidator(),
		selection: NewSelection(backend, logger),
		hold:      hold,
		finalizer: NewFinalizer(backend, hold, logger),
		step:      StepSeatSelection,
	}

	hold.OnExpired(session.handleExpiry)

	return session
}

// ChooseShowtime fetches the film and the seat map for the given showtime.
// Any previous selection is discarded and a resolved hold is reset, so the
// flow starts over from seat selection.
func (s *Session) ChooseShowtime(ctx context.Context, theater domain.Theater, showtime domain.Showtime) error {
	s.mu.Lock()
	s.step = StepSeatSelection
	s.theater = theater
	s.showtime = showtime
	s.film = nil
	s.mu.Unlock()

	s.hold.Reset()

	film, err := s.backend.GetFilm(ctx, showtime.FilmID)
	if err != nil {
		return fmt.Errorf("get film %d: %w", showtime.FilmID, err)
	}

	s.mu.Lock()
	s.film = film
	s.mu.Unlock()

	return s.selection.Load(ctx, showtime.ID)
}

func (s *Session) Selection() *Selection {
	return s.selection
}

func (s *Session) Film() *domain.Film {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.film
}

// Hold exposes the hold controller, e.g. for rendering the countdown.
func (s *Session) Hold() *HoldController {
	return s.hold
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.step
}

func (s *Session) HoldState() HoldState {
	return s.hold.State()
}

func (s *Session) TimeRemaining() int {
	return s.hold.TimeRemaining()
}

// HoldExpired reports whether the hold timed out since the last call, and
// clears the notice. The forced transition back to seat selection has already
// happened by the time this returns true.
func (s *Session) HoldExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := s.expired
	s.expired = false

	return expired
}

func (s *Session) ToggleSeat(seatID int) bool {
	if s.Step() != StepSeatSelection {
		return false
	}

	return s.selection.Toggle(seatID)
}

// Total recomputes the selection price from the current film and seat
// snapshot. It is pure and safe to call on every render.
func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	film := s.film
	s.mu.Unlock()

	if film == nil {
		return decimal.Zero
	}

	return s.selection.Total(film.Price)
}

// Proceed holds the selected seats and advances to the payment step. With no
// seats selected the hold call is never issued.
func (s *Session) Proceed(ctx context.Context) error {
	s.mu.Lock()
	if s.step != StepSeatSelection {
		s.mu.Unlock()
		return fmt.Errorf("cannot hold seats during %s step", s.step)
	}
	s.mu.Unlock()

	seatIDs := s.selection.SelectedIDs()
	if len(seatIDs) == 0 {
		return domain.ErrNoSeatsSelected
	}

	req := domain.HoldRequest{
		ShowtimeID: s.selection.ShowtimeID(),
		SeatIDs:    seatIDs,
	}

	err := s.validate.Struct(req)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			return fmt.Errorf("invalid hold request: seats %s", appvalidator.ValidationMessage(vErrs[0]))
		}
		return err
	}

	s.hold.Reset()

	err = s.hold.RequestHold(ctx, req.ShowtimeID, req.SeatIDs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.step = StepPayment
	s.mu.Unlock()

	return nil
}

// Back leaves the payment step and returns to seat selection. The release is
// issued concurrently; navigation never waits on it, the backend's own
// expiry is the backstop if it is lost.
func (s *Session) Back(ctx context.Context) {
	s.mu.Lock()
	if s.step != StepPayment {
		s.mu.Unlock()
		return
	}
	s.step = StepSeatSelection
	s.mu.Unlock()

	go s.hold.Cancel(context.WithoutCancel(ctx))
}

// Cancel abandons the booking from the payment step. Same path as Back.
func (s *Session) Cancel(ctx context.Context) {
	s.Back(ctx)
}

// Pay finalizes the booking with the chosen payment method. On success the
// flow is complete; on failure the hold stays active so the user can retry
// while the countdown lasts.
func (s *Session) Pay(ctx context.Context, method domain.PaymentMethod) (domain.Outcome, error) {
	s.mu.Lock()
	if s.step != StepPayment {
		s.mu.Unlock()
		return nil, domain.ErrHoldNotActive
	}
	summary := s.buildSummary()
	s.mu.Unlock()

	outcome, err := s.finalizer.Pay(ctx, method, summary)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.step = StepComplete
	s.mu.Unlock()

	return outcome, nil
}

// buildSummary must be called with the lock held.
func (s *Session) buildSummary() domain.BookingSummary {
	summary := domain.BookingSummary{
		Theater:  s.theater,
		Showtime: s.showtime,
		Seats:    s.selection.Selected(),
	}

	if s.film != nil {
		summary.Film = *s.film
		summary.Total = s.selection.Total(s.film.Price)
	}

	return summary
}

func (s *Session) handleExpiry() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expired = true

	if s.step == StepPayment {
		s.step = StepSeatSelection
	}
}
