package domain

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "CASH"
	PaymentMethodVNPay PaymentMethod = "VNPAY"
	PaymentMethodMomo  PaymentMethod = "MOMO"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodVNPay, PaymentMethodMomo:
		return true
	}

	return false
}

// Gateway reports whether the method requires a redirect to an external
// payment provider, as opposed to pay-at-counter cash.
func (m PaymentMethod) Gateway() bool {
	return m.Valid() && m != PaymentMethodCash
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
)

// BookingReceipt is the raw create-booking result from the backend. For
// gateway methods PaymentURL carries the external payment page; for cash it
// is empty.
type BookingReceipt struct {
	BookingID  int
	Status     BookingStatus
	PaymentURL string
}

type BookingSummary struct {
	BookingID int
	Film      Film
	Theater   Theater
	Showtime  Showtime
	Seats     []Seat
	Total     decimal.Decimal
}

// Outcome is the discriminated result of finalizing a booking. Exactly one of
// the two implementations is produced for a successful payment call:
// CashConfirmation for pay-at-counter bookings, GatewayRedirect for methods
// that continue on an external payment page.
type Outcome interface {
	outcome()
}

type CashConfirmation struct {
	Booking BookingSummary
}

type GatewayRedirect struct {
	RedirectURL string
}

func (CashConfirmation) outcome() {}
func (GatewayRedirect) outcome()  {}
