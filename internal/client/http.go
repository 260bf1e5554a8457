// Package client is the HTTP adapter of the reservation backend port. It
// speaks the backend's REST API: JSON bodies wrapped in a
// {statusCode, message, data} envelope, bearer-token authenticated.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cinemovie/booking-flow/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// page wraps paginated list payloads, which nest the items one level deeper.
type page struct {
	Data json.RawMessage `json:"data"`
}

type seatPayload struct {
	SeatID          int             `json:"seatId"`
	SeatRow         string          `json:"seatRow"`
	Number          int             `json:"number"`
	SeatVariantName string          `json:"seatVariantName"`
	Status          string          `json:"status"`
	BasePrice       decimal.Decimal `json:"basePrice"`
	Bonus           decimal.Decimal `json:"bonus"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

type filmPayload struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Genre    string          `json:"genre"`
	Language string          `json:"language"`
	Duration int             `json:"duration"`
	Price    decimal.Decimal `json:"price"`
}

type showtimePayload struct {
	ID         int    `json:"id"`
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Auditorium struct {
		ID     int `json:"id"`
		Number int `json:"number"`
	} `json:"auditorium"`
	Film struct {
		ID int `json:"id"`
	} `json:"film"`
}

type bookingPayload struct {
	BookingID  int    `json:"bookingId"`
	Status     string `json:"status"`
	PaymentURL string `json:"paymentUrl"`
}

func (c *Client) ListSeats(ctx context.Context, showtimeID int) ([]domain.Seat, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/showtimes/%d/seats", showtimeID), nil)
	if err != nil {
		return nil, err
	}

	var payload []seatPayload
	err = json.Unmarshal(data, &payload)
	if err != nil {
		return nil, fmt.Errorf("decode seat list: %w", err)
	}

	seats := make([]domain.Seat, len(payload))
	for i, v := range payload {
		seats[i] = domain.Seat{
			ID:         v.SeatID,
			Row:        v.SeatRow,
			Number:     v.Number,
			Variant:    domain.SeatVariant(v.SeatVariantName),
			Status:     domain.SeatStatus(v.Status),
			BasePrice:  v.BasePrice,
			Bonus:      v.Bonus,
			TotalPrice: v.TotalPrice,
		}
	}

	return seats, nil
}

func (c *Client) CreateHold(ctx context.Context, req domain.HoldRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/seat-holds", req)
	return err
}

func (c *Client) ReleaseHold(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/seat-holds", nil)
	return err
}

func (c *Client) CreateBooking(ctx context.Context, method domain.PaymentMethod) (*domain.BookingReceipt, error) {
	body := map[string]string{"paymentMethod": string(method)}

	data, err := c.do(ctx, http.MethodPost, "/api/v1/bookings", body)
	if err != nil {
		return nil, err
	}

	var payload bookingPayload
	err = json.Unmarshal(data, &payload)
	if err != nil {
		return nil, fmt.Errorf("decode booking: %w", err)
	}

	return &domain.BookingReceipt{
		BookingID:  payload.BookingID,
		Status:     domain.BookingStatus(payload.Status),
		PaymentURL: payload.PaymentURL,
	}, nil
}

func (c *Client) GetFilm(ctx context.Context, filmID int) (*domain.Film, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/films/%d", filmID), nil)
	if err != nil {
		return nil, err
	}

	var payload filmPayload
	err = json.Unmarshal(data, &payload)
	if err != nil {
		return nil, fmt.Errorf("decode film: %w", err)
	}

	return &domain.Film{
		ID:       payload.ID,
		Name:     payload.Name,
		Genre:    payload.Genre,
		Language: payload.Language,
		Duration: payload.Duration,
		Price:    payload.Price,
	}, nil
}

// ListShowtimes returns the showtimes for a film on a given date. Not part of
// the backend port; used when browsing toward a showtime.
func (c *Client) ListShowtimes(ctx context.Context, filmID int, date string) ([]domain.Showtime, error) {
	filter := fmt.Sprintf("date='%s' and film.id=%d", date, filmID)
	path := "/api/v1/showtimes?filter=" + url.QueryEscape(filter)

	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	// List endpoints nest the items inside a paginated object.
	var paged page
	if err := json.Unmarshal(data, &paged); err == nil && paged.Data != nil {
		data = paged.Data
	}

	var payload []showtimePayload
	err = json.Unmarshal(data, &payload)
	if err != nil {
		return nil, fmt.Errorf("decode showtime list: %w", err)
	}

	showtimes := make([]domain.Showtime, len(payload))
	for i, v := range payload {
		showtimes[i] = domain.Showtime{
			ID:        v.ID,
			FilmID:    v.Film.ID,
			Date:      v.Date,
			StartTime: v.StartTime,
			EndTime:   v.EndTime,
			Auditorium: domain.Auditorium{
				ID:     v.Auditorium.ID,
				Number: v.Auditorium.Number,
			},
		}
	}

	return showtimes, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader *bytes.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if method != http.MethodGet {
		// The backend dedupes retried mutations on this key.
		req.Header.Set("Idempotency-Key", uuid.New().String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	err = json.NewDecoder(resp.Body).Decode(&env)
	if err != nil {
		return nil, fmt.Errorf("decode response from %s %s: %w", method, path, err)
	}

	status := env.StatusCode
	if status == 0 {
		status = resp.StatusCode
	}

	if status < 200 || status > 299 {
		c.logger.Warn("backend call failed", "method", method, "path", path, "status", status, "message", env.Message)
		return nil, c.statusError(status, env.Message)
	}

	return env.Data, nil
}

func (c *Client) statusError(status int, message string) error {
	switch status {
	case http.StatusConflict:
		return domain.ErrSeatUnavailable
	case http.StatusNotFound:
		return domain.ErrRecordNotFound
	}

	if message == "" {
		message = http.StatusText(status)
	}

	return fmt.Errorf("backend returned %d: %s", status, message)
}
