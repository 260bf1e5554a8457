package backend

import (
	"context"
	"testing"
	"time"

	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InMemTestSuite struct {
	suite.Suite
	clock   *clockwork.FakeClock
	backend *InMem
}

func (s *InMemTestSuite) SetupTest() {
	s.clock = clockwork.NewFakeClock()
	s.backend = NewInMem(s.clock, 30*time.Second)

	s.backend.AddFilm(domain.Film{ID: 1, Name: "Midnight Express", Price: decimal.NewFromInt(40000)})
	s.backend.AddSeats(1, []domain.Seat{
		{ID: 1, Row: "A", Number: 1, Status: domain.SeatStatusAvailable, TotalPrice: decimal.NewFromInt(50000)},
		{ID: 2, Row: "A", Number: 2, Status: domain.SeatStatusAvailable, TotalPrice: decimal.NewFromInt(50000)},
		{ID: 3, Row: "A", Number: 3, Status: domain.SeatStatusAvailable, TotalPrice: decimal.NewFromInt(50000)},
	})
}

func TestInMemSuite(t *testing.T) {
	suite.Run(t, new(InMemTestSuite))
}

func (s *InMemTestSuite) hold(seatIDs ...int) error {
	return s.backend.CreateHold(context.Background(), domain.HoldRequest{ShowtimeID: 1, SeatIDs: seatIDs})
}

func (s *InMemTestSuite) seatStatus(seatID int) domain.SeatStatus {
	seats, err := s.backend.ListSeats(context.Background(), 1)
	s.Require().NoError(err)

	for _, seat := range seats {
		if seat.ID == seatID {
			return seat.Status
		}
	}

	s.Require().FailNowf("seat not found", "seat %d", seatID)
	return ""
}

func (s *InMemTestSuite) TestCreateHold() {
	tests := []struct {
		name    string
		setup   func()
		req     domain.HoldRequest
		wantErr error
	}{
		{
			name: "should hold available seats",
			req:  domain.HoldRequest{ShowtimeID: 1, SeatIDs: []int{1, 2}},
		},
		{
			name:    "should reject an unknown showtime",
			req:     domain.HoldRequest{ShowtimeID: 99, SeatIDs: []int{1}},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name:    "should reject an unknown seat",
			req:     domain.HoldRequest{ShowtimeID: 1, SeatIDs: []int{99}},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name:    "should reject when another hold is active",
			setup:   func() { s.Require().NoError(s.hold(1)) },
			req:     domain.HoldRequest{ShowtimeID: 1, SeatIDs: []int{2}},
			wantErr: domain.ErrHoldAlreadyExists,
		},
		{
			name: "should reject a booked seat",
			setup: func() {
				s.Require().NoError(s.hold(1))
				_, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethodCash)
				s.Require().NoError(err)
			},
			req:     domain.HoldRequest{ShowtimeID: 1, SeatIDs: []int{1}},
			wantErr: domain.ErrSeatUnavailable,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			if tt.setup != nil {
				tt.setup()
			}

			err := s.backend.CreateHold(context.Background(), tt.req)

			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *InMemTestSuite) TestHeldSeatsShowAsHold() {
	s.Require().NoError(s.hold(1, 2))

	s.Equal(domain.SeatStatusHold, s.seatStatus(1))
	s.Equal(domain.SeatStatusHold, s.seatStatus(2))
	s.Equal(domain.SeatStatusAvailable, s.seatStatus(3))
}

func (s *InMemTestSuite) TestHoldExpiresWithoutRelease() {
	s.Require().NoError(s.hold(1))

	s.clock.Advance(31 * time.Second)

	s.Equal(domain.SeatStatusAvailable, s.seatStatus(1))
	s.NoError(s.hold(2), "an expired hold no longer blocks a new one")
}

func (s *InMemTestSuite) TestExpiredHoldCannotBeBooked() {
	s.Require().NoError(s.hold(1))

	s.clock.Advance(31 * time.Second)

	_, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethodCash)
	s.ErrorIs(err, domain.ErrHoldExpired)
}

func (s *InMemTestSuite) TestReleaseHoldFreesSeats() {
	s.Require().NoError(s.hold(1, 2))

	s.Require().NoError(s.backend.ReleaseHold(context.Background()))

	s.Equal(domain.SeatStatusAvailable, s.seatStatus(1))
	s.NoError(s.hold(1))
}

func (s *InMemTestSuite) TestBookingConsumesHold() {
	s.Require().NoError(s.hold(1))

	receipt, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethodCash)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusConfirmed, receipt.Status)
	s.Empty(receipt.PaymentURL)

	s.Equal(domain.SeatStatusBooked, s.seatStatus(1))

	_, err = s.backend.CreateBooking(context.Background(), domain.PaymentMethodCash)
	s.ErrorIs(err, domain.ErrHoldExpired, "the hold is gone once booked")
}

func (s *InMemTestSuite) TestGatewayBookingCarriesPaymentURL() {
	s.Require().NoError(s.hold(1))

	receipt, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethodVNPay)

	s.Require().NoError(err)
	s.Equal(domain.BookingStatusPending, receipt.Status)
	s.Contains(receipt.PaymentURL, "https://pay.example.com/checkout")
}

func (s *InMemTestSuite) TestOmitPaymentURL() {
	s.backend.OmitPaymentURL = true
	s.Require().NoError(s.hold(1))

	receipt, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethodMomo)

	s.Require().NoError(err)
	s.Empty(receipt.PaymentURL)
}

func (s *InMemTestSuite) TestCreateBookingRejectsUnknownMethod() {
	s.Require().NoError(s.hold(1))

	_, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethod("IOU"))

	s.ErrorIs(err, domain.ErrUnknownPayment)
	s.Equal(domain.SeatStatusHold, s.seatStatus(1), "a rejected booking keeps the hold")
}

func (s *InMemTestSuite) TestGetFilm() {
	film, err := s.backend.GetFilm(context.Background(), 1)
	s.Require().NoError(err)
	s.Equal("Midnight Express", film.Name)

	_, err = s.backend.GetFilm(context.Background(), 99)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *InMemTestSuite) TestBookingIDsAreSequential() {
	s.Require().NoError(s.hold(1))
	first, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethodCash)
	s.Require().NoError(err)

	s.Require().NoError(s.hold(2))
	second, err := s.backend.CreateBooking(context.Background(), domain.PaymentMethodCash)
	s.Require().NoError(err)

	s.Equal(first.BookingID+1, second.BookingID)
}
