package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/shopspring/decimal"
)

// Selection holds the seat snapshot for one showtime and the user's
// in-progress selection. The snapshot is server-authoritative and read-only;
// the selection is a purely local overlay keyed by seat ID.
type Selection struct {
	backend domain.Backend
	logger  *slog.Logger

	showtimeID int
	seats      []domain.Seat
	selected   map[int]bool
}

func NewSelection(backend domain.Backend, logger *slog.Logger) *Selection {
	return &Selection{
		backend:  backend,
		logger:   logger,
		selected: map[int]bool{},
	}
}

// Load fetches the seat list for the given showtime and clears any previous
// selection. On failure the seat list is left empty; the caller decides how
// to surface the error, no retry is performed here.
func (s *Selection) Load(ctx context.Context, showtimeID int) error {
	s.showtimeID = showtimeID
	s.seats = nil
	s.selected = map[int]bool{}

	seats, err := s.backend.ListSeats(ctx, showtimeID)
	if err != nil {
		return fmt.Errorf("load seats for showtime %d: %w", showtimeID, err)
	}

	s.seats = seats

	return nil
}

// Toggle flips the selection of the seat with the given ID and reports
// whether anything changed. Seats whose status is not AVAILABLE are silently
// unselectable; the previous snapshot is not trusted blindly.
func (s *Selection) Toggle(seatID int) bool {
	for _, seat := range s.seats {
		if seat.ID != seatID {
			continue
		}

		if !seat.Available() {
			s.logger.Warn("ignoring toggle on unavailable seat", "seat_id", seatID, "status", seat.Status)
			return false
		}

		s.selected[seatID] = !s.selected[seatID]

		return true
	}

	return false
}

func (s *Selection) ShowtimeID() int {
	return s.showtimeID
}

func (s *Selection) IsSelected(seatID int) bool {
	return s.selected[seatID]
}

// Selected returns the selected seats ordered by row, then seat number.
func (s *Selection) Selected() []domain.Seat {
	var seats []domain.Seat

	for _, seat := range s.seats {
		if s.selected[seat.ID] {
			seats = append(seats, seat)
		}
	}

	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Number < seats[j].Number
	})

	return seats
}

func (s *Selection) SelectedIDs() []int {
	seats := s.Selected()
	ids := make([]int, len(seats))

	for i, seat := range seats {
		ids[i] = seat.ID
	}

	return ids
}

func (s *Selection) Count() int {
	count := 0

	for _, selected := range s.selected {
		if selected {
			count++
		}
	}

	return count
}

// Total computes the price of the current selection: the film price plus the
// seat price, summed over every selected seat. Zero seats yields zero.
func (s *Selection) Total(filmPrice decimal.Decimal) decimal.Decimal {
	total := decimal.Zero

	for _, seat := range s.Selected() {
		total = total.Add(filmPrice.Add(seat.TotalPrice))
	}

	return total
}

type SeatRow struct {
	Row   string
	Seats []domain.Seat
}

// Rows groups the snapshot by row for rendering. Rows are sorted
// lexicographically and seats within a row by number, so the output is
// deterministic for a given snapshot.
func (s *Selection) Rows() []SeatRow {
	byRow := map[string][]domain.Seat{}

	for _, seat := range s.seats {
		byRow[seat.Row] = append(byRow[seat.Row], seat)
	}

	rowNames := make([]string, 0, len(byRow))
	for row := range byRow {
		rowNames = append(rowNames, row)
	}
	sort.Strings(rowNames)

	rows := make([]SeatRow, len(rowNames))

	for i, name := range rowNames {
		seats := byRow[name]
		sort.Slice(seats, func(a, b int) bool {
			return seats[a].Number < seats[b].Number
		})

		rows[i] = SeatRow{Row: name, Seats: seats}
	}

	return rows
}
