package mocks

import (
	"context"

	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
	domain.Backend
}

func (m *MockBackend) ListSeats(ctx context.Context, showtimeID int) ([]domain.Seat, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockBackend) CreateHold(ctx context.Context, req domain.HoldRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockBackend) ReleaseHold(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) CreateBooking(ctx context.Context, method domain.PaymentMethod) (*domain.BookingReceipt, error) {
	args := m.Called(ctx, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingReceipt), args.Error(1)
}

func (m *MockBackend) GetFilm(ctx context.Context, filmID int) (*domain.Film, error) {
	args := m.Called(ctx, filmID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Film), args.Error(1)
}
