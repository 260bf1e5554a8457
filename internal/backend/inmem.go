// Package backend provides an in-memory implementation of the reservation
// backend port. It enforces the guarantees the flow assumes of the real
// server: at most one holder per seat, and authoritative hold expiry that
// reclaims seats even when the client never calls ReleaseHold.
package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/jonboulle/clockwork"
)

const DefaultHoldTTL = 300 * time.Second

type hold struct {
	showtimeID int
	seatIDs    []int
	expiresAt  time.Time
}

type InMem struct {
	clock   clockwork.Clock
	holdTTL time.Duration

	// OmitPaymentURL makes gateway bookings come back without a redirect
	// URL, to exercise the payment-link-missing path.
	OmitPaymentURL bool

	mu         sync.Mutex
	films      map[int]domain.Film
	seats      map[int][]domain.Seat
	booked     map[int]map[int]bool // showtimeID -> seatID
	hold       *hold
	bookingSeq int
	gatewayURL string
}

func NewInMem(clock clockwork.Clock, holdTTL time.Duration) *InMem {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}

	return &InMem{
		clock:      clock,
		holdTTL:    holdTTL,
		films:      map[int]domain.Film{},
		seats:      map[int][]domain.Seat{},
		booked:     map[int]map[int]bool{},
		gatewayURL: "https://pay.example.com/checkout",
	}
}

func (b *InMem) AddFilm(film domain.Film) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.films[film.ID] = film
}

func (b *InMem) AddSeats(showtimeID int, seats []domain.Seat) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seats[showtimeID] = seats
}

func (b *InMem) ListSeats(ctx context.Context, showtimeID int) ([]domain.Seat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireHold()

	seats, ok := b.seats[showtimeID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	held := map[int]bool{}
	if b.hold != nil && b.hold.showtimeID == showtimeID {
		for _, id := range b.hold.seatIDs {
			held[id] = true
		}
	}

	out := make([]domain.Seat, len(seats))
	for i, seat := range seats {
		switch {
		case b.booked[showtimeID][seat.ID]:
			seat.Status = domain.SeatStatusBooked
		case held[seat.ID]:
			seat.Status = domain.SeatStatusHold
		}
		out[i] = seat
	}

	return out, nil
}

func (b *InMem) CreateHold(ctx context.Context, req domain.HoldRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireHold()

	if b.hold != nil {
		return domain.ErrHoldAlreadyExists
	}

	seats, ok := b.seats[req.ShowtimeID]
	if !ok {
		return domain.ErrRecordNotFound
	}

	byID := map[int]domain.Seat{}
	for _, seat := range seats {
		byID[seat.ID] = seat
	}

	for _, id := range req.SeatIDs {
		seat, ok := byID[id]
		if !ok {
			return fmt.Errorf("seat %d: %w", id, domain.ErrRecordNotFound)
		}
		if !seat.Available() || b.booked[req.ShowtimeID][id] {
			return domain.ErrSeatUnavailable
		}
	}

	b.hold = &hold{
		showtimeID: req.ShowtimeID,
		seatIDs:    append([]int(nil), req.SeatIDs...),
		expiresAt:  b.clock.Now().Add(b.holdTTL),
	}

	return nil
}

func (b *InMem) ReleaseHold(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hold = nil

	return nil
}

func (b *InMem) CreateBooking(ctx context.Context, method domain.PaymentMethod) (*domain.BookingReceipt, error) {
	if !method.Valid() {
		return nil, domain.ErrUnknownPayment
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.expireHold()

	if b.hold == nil {
		return nil, domain.ErrHoldExpired
	}

	showtimeID := b.hold.showtimeID
	if b.booked[showtimeID] == nil {
		b.booked[showtimeID] = map[int]bool{}
	}
	for _, id := range b.hold.seatIDs {
		b.booked[showtimeID][id] = true
	}

	// The hold is consumed by the booking.
	b.hold = nil

	b.bookingSeq++
	receipt := &domain.BookingReceipt{
		BookingID: b.bookingSeq,
		Status:    domain.BookingStatusPending,
	}

	if method == domain.PaymentMethodCash {
		receipt.Status = domain.BookingStatusConfirmed
	} else if !b.OmitPaymentURL {
		receipt.PaymentURL = fmt.Sprintf("%s?booking=%d", b.gatewayURL, receipt.BookingID)
	}

	return receipt, nil
}

func (b *InMem) GetFilm(ctx context.Context, filmID int) (*domain.Film, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	film, ok := b.films[filmID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}

	return &film, nil
}

// expireHold must be called with the lock held.
func (b *InMem) expireHold() {
	if b.hold != nil && !b.clock.Now().Before(b.hold.expiresAt) {
		b.hold = nil
	}
}
