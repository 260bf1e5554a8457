package domain

import "github.com/shopspring/decimal"

type Film struct {
	ID       int
	Name     string
	Genre    string
	Language string
	Duration int
	Price    decimal.Decimal
}

type Theater struct {
	ID   int
	Name string
}

type Auditorium struct {
	ID     int
	Number int
}

type Showtime struct {
	ID         int
	FilmID     int
	Date       string
	StartTime  string
	EndTime    string
	Auditorium Auditorium
}
