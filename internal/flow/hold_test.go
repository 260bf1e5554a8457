package flow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/cinemovie/booking-flow/internal/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HoldControllerTestSuite struct {
	suite.Suite
	backend *mocks.MockBackend
	clock   *clockwork.FakeClock
}

func (s *HoldControllerTestSuite) SetupTest() {
	s.backend = new(mocks.MockBackend)
	s.clock = clockwork.NewFakeClock()
}

func TestHoldControllerSuite(t *testing.T) {
	suite.Run(t, new(HoldControllerTestSuite))
}

func (s *HoldControllerTestSuite) newController(window time.Duration) *HoldController {
	return NewHoldController(s.backend, s.clock, testLogger(), window)
}

// holding returns a controller already in the Holding state.
func (s *HoldControllerTestSuite) holding(window time.Duration) *HoldController {
	c := s.newController(window)

	s.backend.On("CreateHold", mock.Anything, domain.HoldRequest{ShowtimeID: 1, SeatIDs: []int{1, 2}}).
		Return(nil).Once()

	s.Require().NoError(c.RequestHold(context.Background(), 1, []int{1, 2}))

	return c
}

func (s *HoldControllerTestSuite) TestRequestHold() {
	tests := []struct {
		name          string
		seatIDs       []int
		setupMocks    func()
		wantErr       error
		wantState     HoldState
		wantRemaining int
	}{
		{
			name:      "should fail without any seats",
			seatIDs:   nil,
			wantErr:   domain.ErrNoSeatsSelected,
			wantState: HoldStateIdle,
		},
		{
			name:    "should stay idle when the backend rejects the hold",
			seatIDs: []int{1, 2},
			setupMocks: func() {
				s.backend.On("CreateHold", mock.Anything, mock.Anything).
					Return(fmt.Errorf("seats already taken")).Once()
			},
			wantErr:   nil,
			wantState: HoldStateIdle,
		},
		{
			name:    "should start the countdown on success",
			seatIDs: []int{1, 2},
			setupMocks: func() {
				s.backend.On("CreateHold", mock.Anything, domain.HoldRequest{ShowtimeID: 1, SeatIDs: []int{1, 2}}).
					Return(nil).Once()
			},
			wantState:     HoldStateHolding,
			wantRemaining: 300,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.backend.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			c := s.newController(DefaultHoldWindow)

			err := c.RequestHold(context.Background(), 1, tt.seatIDs)

			if tt.wantState == HoldStateIdle {
				s.Error(err)
				if tt.wantErr != nil {
					s.ErrorIs(err, tt.wantErr)
				}
			} else {
				s.NoError(err)
			}

			s.Equal(tt.wantState, c.State())
			s.Equal(tt.wantRemaining, c.TimeRemaining())
		})
	}
}

func (s *HoldControllerTestSuite) TestRequestHoldRejectedWhileHolding() {
	c := s.holding(DefaultHoldWindow)

	err := c.RequestHold(context.Background(), 1, []int{3})

	s.ErrorIs(err, domain.ErrHoldAlreadyExists)
	s.backend.AssertNumberOfCalls(s.T(), "CreateHold", 1)
}

func (s *HoldControllerTestSuite) TestTickCountsDown() {
	c := s.holding(3 * time.Second)

	s.Equal(3, c.TimeRemaining())

	s.False(c.Tick())
	s.Equal(2, c.TimeRemaining())
	s.Equal(HoldStateHolding, c.State())
}

func (s *HoldControllerTestSuite) TestTimeoutReleasesExactlyOnce() {
	expired := false

	c := s.holding(2 * time.Second)
	c.OnExpired(func() { expired = true })

	s.backend.On("ReleaseHold", mock.Anything).Return(nil).Once()

	s.False(c.Tick())
	s.True(c.Tick())

	s.Equal(HoldStateReleased, c.State())
	s.Zero(c.TimeRemaining())
	s.True(expired)

	// A late manual cancel after the timeout must not release again.
	c.Cancel(context.Background())

	s.backend.AssertNumberOfCalls(s.T(), "ReleaseHold", 1)
}

func (s *HoldControllerTestSuite) TestTimeoutReleaseFailureIsNotSurfaced() {
	c := s.holding(1 * time.Second)

	s.backend.On("ReleaseHold", mock.Anything).Return(fmt.Errorf("network error")).Once()

	s.True(c.Tick())
	s.Equal(HoldStateReleased, c.State())
}

func (s *HoldControllerTestSuite) TestCancelIsIdempotent() {
	c := s.holding(DefaultHoldWindow)

	s.backend.On("ReleaseHold", mock.Anything).Return(nil).Once()

	c.Cancel(context.Background())
	c.Cancel(context.Background())

	s.Equal(HoldStateReleased, c.State())
	s.backend.AssertNumberOfCalls(s.T(), "ReleaseHold", 1)
}

func (s *HoldControllerTestSuite) TestCancelFromIdleIsANoOp() {
	c := s.newController(DefaultHoldWindow)

	c.Cancel(context.Background())

	s.Equal(HoldStateIdle, c.State())
	s.backend.AssertNotCalled(s.T(), "ReleaseHold", mock.Anything)
}

func (s *HoldControllerTestSuite) TestConfirmStopsCountdownWithoutRelease() {
	c := s.holding(DefaultHoldWindow)

	s.Require().NoError(c.Confirm())

	s.Equal(HoldStateConfirmed, c.State())

	// Neither a cancel nor further ticks may fire a release afterwards.
	c.Cancel(context.Background())
	s.True(c.Tick())

	s.backend.AssertNotCalled(s.T(), "ReleaseHold", mock.Anything)
}

func (s *HoldControllerTestSuite) TestConfirmOutsideHoldingFails() {
	c := s.newController(DefaultHoldWindow)

	s.ErrorIs(c.Confirm(), domain.ErrHoldNotActive)
}

func (s *HoldControllerTestSuite) TestResetReturnsResolvedControllerToIdle() {
	c := s.holding(DefaultHoldWindow)

	s.backend.On("ReleaseHold", mock.Anything).Return(nil).Once()
	c.Cancel(context.Background())

	c.Reset()
	s.Equal(HoldStateIdle, c.State())

	// Reset never interrupts an active hold.
	c2 := s.holding(DefaultHoldWindow)
	c2.Reset()
	s.Equal(HoldStateHolding, c2.State())
}

func (s *HoldControllerTestSuite) TestCountdownTicksWithClock() {
	c := s.holding(10 * time.Second)

	// The countdown goroutine is waiting on the fake ticker.
	s.clock.BlockUntil(1)
	s.clock.Advance(time.Second)

	s.Eventually(func() bool {
		return c.TimeRemaining() == 9
	}, time.Second, 5*time.Millisecond)

	s.Require().NoError(c.Confirm())
}
