package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusBooked    SeatStatus = "BOOKED"
	SeatStatusHold      SeatStatus = "HOLD"
)

type SeatVariant string

const (
	SeatVariantRegular SeatVariant = "REG"
	SeatVariantVIP     SeatVariant = "VIP"
)

// Seat is a read-only snapshot of a seat for one showtime, as reported by the
// backend. The user's in-progress selection is tracked separately by the
// selection aggregate and never written back into the snapshot.
type Seat struct {
	ID         int
	Row        string
	Number     int
	Variant    SeatVariant
	Status     SeatStatus
	BasePrice  decimal.Decimal
	Bonus      decimal.Decimal
	TotalPrice decimal.Decimal
}

func (s Seat) Available() bool {
	return s.Status == SeatStatusAvailable
}

// Label returns the display name of the seat, e.g. "A7".
func (s Seat) Label() string {
	return fmt.Sprintf("%s%d", s.Row, s.Number)
}
