package domain

import "errors"

var (
	ErrNoSeatsSelected    = errors.New("no seats selected")
	ErrSeatUnavailable    = errors.New("seat(s) are already reserved")
	ErrHoldAlreadyExists  = errors.New("a seat hold already exists for this session")
	ErrHoldNotActive      = errors.New("no active seat hold")
	ErrHoldExpired        = errors.New("seat hold has expired, please select your seats again")
	ErrPaymentInProgress  = errors.New("a payment is already being processed")
	ErrPaymentLinkMissing = errors.New("payment link missing from gateway response")
	ErrUnknownPayment     = errors.New("unknown payment method")
	ErrRecordNotFound     = errors.New("record not found")
)
