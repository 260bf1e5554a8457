package domain

import "context"

// HoldRequest asks the backend for a time-boxed exclusive claim on a set of
// seats. At most 8 seats can be held at once.
type HoldRequest struct {
	ShowtimeID int   `json:"showtimeId" validate:"gt=0"`
	SeatIDs    []int `json:"seatIds" validate:"min=1,max=8,dive,gt=0"`
}

// Backend is the boundary to the reservation backend. The backend owns the
// source of truth for seat availability and hold expiry; implementations are
// expected to guarantee at most one holder per seat and to reclaim held seats
// on their own timeout even if ReleaseHold is never called.
type Backend interface {
	ListSeats(ctx context.Context, showtimeID int) ([]Seat, error)
	CreateHold(ctx context.Context, req HoldRequest) error
	ReleaseHold(ctx context.Context) error
	CreateBooking(ctx context.Context, method PaymentMethod) (*BookingReceipt, error)
	GetFilm(ctx context.Context, filmID int) (*Film, error)
}
