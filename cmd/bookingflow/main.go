package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cinemovie/booking-flow/internal/backend"
	"github.com/cinemovie/booking-flow/internal/client"
	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/cinemovie/booking-flow/internal/flow"
	appvalidator "github.com/cinemovie/booking-flow/internal/validator"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

type config struct {
	backendURL string
	token      string
	filmID     int
	showtimeID int
	seats      string
	method     string
	holdWindow time.Duration
	demo       bool
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var cfg config

	flag.StringVar(&cfg.backendURL, "backend-url", os.Getenv("BACKEND_URL"), "Reservation backend base URL")
	flag.StringVar(&cfg.token, "token", os.Getenv("BACKEND_TOKEN"), "Bearer token for the backend")
	flag.IntVar(&cfg.filmID, "film", 1, "Film ID")
	flag.IntVar(&cfg.showtimeID, "showtime", 1, "Showtime ID")
	flag.StringVar(&cfg.seats, "seats", "1,2", "Comma-separated seat IDs to select")
	flag.StringVar(&cfg.method, "method", "CASH", "Payment method (CASH|VNPAY|MOMO)")
	flag.DurationVar(&cfg.holdWindow, "hold-window", flow.DefaultHoldWindow, "Seat hold window")
	flag.BoolVar(&cfg.demo, "demo", false, "Run against a built-in in-memory backend")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var be domain.Backend

	if cfg.demo {
		be = demoBackend()
	} else {
		if cfg.backendURL == "" {
			return fmt.Errorf("backend URL is required (use -backend-url or set BACKEND_URL)")
		}
		be = client.NewClient(cfg.backendURL, cfg.token, logger)
	}

	seatIDs, err := parseSeatIDs(cfg.seats)
	if err != nil {
		return err
	}

	choice := struct {
		Method domain.PaymentMethod `validate:"required,payment_method"`
	}{Method: domain.PaymentMethod(cfg.method)}

	err = appvalidator.NewValidator().Struct(choice)
	if err != nil {
		return fmt.Errorf("payment method %q must be one of CASH, VNPAY, MOMO", cfg.method)
	}

	session := flow.NewSession(be, flow.Options{
		Logger:     logger,
		HoldWindow: cfg.holdWindow,
	})

	ctx := context.Background()

	showtime := domain.Showtime{ID: cfg.showtimeID, FilmID: cfg.filmID}
	theater := domain.Theater{ID: 1, Name: "CineMovie"}

	err = session.ChooseShowtime(ctx, theater, showtime)
	if err != nil {
		return err
	}

	printSeatMap(session.Selection())

	for _, id := range seatIDs {
		if !session.ToggleSeat(id) {
			logger.Warn("seat cannot be selected", "seat_id", id)
		}
	}

	if session.Selection().Count() == 0 {
		return fmt.Errorf("none of the requested seats could be selected")
	}

	fmt.Printf("total: %s\n", session.Total())

	err = session.Proceed(ctx)
	if err != nil {
		return err
	}

	logger.Info("seats held", "time_remaining", session.TimeRemaining())

	outcome, err := session.Pay(ctx, domain.PaymentMethod(cfg.method))
	if err != nil {
		return err
	}

	switch o := outcome.(type) {
	case domain.CashConfirmation:
		fmt.Printf("booking %d confirmed, pay at the counter\n", o.Booking.BookingID)
		fmt.Printf("  film:    %s\n", o.Booking.Film.Name)
		fmt.Printf("  theater: %s\n", o.Booking.Theater.Name)
		fmt.Printf("  seats:   %s\n", seatLabels(o.Booking.Seats))
		fmt.Printf("  total:   %s\n", o.Booking.Total)
	case domain.GatewayRedirect:
		fmt.Printf("complete the payment at: %s\n", o.RedirectURL)
	}

	return nil
}

func parseSeatIDs(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid seat ID %q", part)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func printSeatMap(selection *flow.Selection) {
	for _, row := range selection.Rows() {
		fmt.Printf("%s: ", row.Row)
		for _, seat := range row.Seats {
			marker := fmt.Sprintf("[%d]", seat.Number)
			if !seat.Available() {
				marker = "[x]"
			}
			fmt.Print(marker, " ")
		}
		fmt.Println()
	}
}

func seatLabels(seats []domain.Seat) string {
	labels := make([]string, len(seats))
	for i, seat := range seats {
		labels[i] = seat.Label()
	}

	return strings.Join(labels, ", ")
}

func demoBackend() *backend.InMem {
	be := backend.NewInMem(clockwork.NewRealClock(), backend.DefaultHoldTTL)

	be.AddFilm(domain.Film{
		ID:       1,
		Name:     "Midnight Express",
		Genre:    "Thriller",
		Language: "EN",
		Duration: 124,
		Price:    decimal.NewFromInt(40000),
	})

	var seats []domain.Seat
	id := 1

	for _, row := range []string{"A", "B", "C"} {
		for number := 1; number <= 8; number++ {
			seat := domain.Seat{
				ID:         id,
				Row:        row,
				Number:     number,
				Variant:    domain.SeatVariantRegular,
				Status:     domain.SeatStatusAvailable,
				BasePrice:  decimal.NewFromInt(45000),
				Bonus:      decimal.NewFromInt(5000),
				TotalPrice: decimal.NewFromInt(50000),
			}

			if row == "C" {
				seat.Variant = domain.SeatVariantVIP
				seat.Bonus = decimal.NewFromInt(35000)
				seat.TotalPrice = decimal.NewFromInt(80000)
			}

			seats = append(seats, seat)
			id++
		}
	}

	be.AddSeats(1, seats)

	return be
}
