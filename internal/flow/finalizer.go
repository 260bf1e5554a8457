package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cinemovie/booking-flow/internal/domain"
)

// Finalizer converts an active hold plus a chosen payment method into a
// booking outcome. Failures leave the hold untouched so the user can retry
// with the same or another method for as long as the countdown allows.
type Finalizer struct {
	backend domain.Backend
	hold    *HoldController
	logger  *slog.Logger

	mu         sync.Mutex
	processing bool
}

func NewFinalizer(backend domain.Backend, hold *HoldController, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		backend: backend,
		hold:    hold,
		logger:  logger,
	}
}

// Processing reports whether a payment call is in flight, so the caller can
// disable the triggering control and prevent a double submit.
func (f *Finalizer) Processing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.processing
}

// Pay creates a booking from the active hold. For cash the result is a
// confirmed booking carrying the given summary; for gateway methods it is a
// redirect to the external payment page. A successful gateway response
// without a redirect URL is an error, and like every other failure it keeps
// the hold in Holding.
func (f *Finalizer) Pay(
	ctx context.Context,
	method domain.PaymentMethod,
	summary domain.BookingSummary) (domain.Outcome, error) {

	if !method.Valid() {
		return nil, domain.ErrUnknownPayment
	}

	if f.hold.State() != HoldStateHolding {
		return nil, domain.ErrHoldNotActive
	}

	f.mu.Lock()
	if f.processing {
		f.mu.Unlock()
		return nil, domain.ErrPaymentInProgress
	}
	f.processing = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.processing = false
		f.mu.Unlock()
	}()

	receipt, err := f.backend.CreateBooking(ctx, method)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if method.Gateway() {
		if receipt.PaymentURL == "" {
			f.logger.Error("gateway booking response has no payment URL", "booking_id", receipt.BookingID)
			return nil, domain.ErrPaymentLinkMissing
		}

		f.confirmHold(receipt)

		return domain.GatewayRedirect{RedirectURL: receipt.PaymentURL}, nil
	}

	f.confirmHold(receipt)
	summary.BookingID = receipt.BookingID

	return domain.CashConfirmation{Booking: summary}, nil
}

func (f *Finalizer) confirmHold(receipt *domain.BookingReceipt) {
	err := f.hold.Confirm()
	if err != nil {
		// The countdown won a race with the booking call. The booking still
		// exists server-side, so report the outcome and leave cleanup to the
		// backend.
		f.logger.Warn("booking created but hold was no longer active", "booking_id", receipt.BookingID)
	}
}
