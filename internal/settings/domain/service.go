package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Get(ctx context.Context) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

type UpdateRequest struct {
	ElectricityPerKWH *int64 `json:"electricity_per_kwh,omitempty"`
	WaterPerPerson    *int64 `json:"water_per_person,omitempty"`
	InternetPerRoom   *int64 `json:"internet_per_room,omitempty"`
	ServicePerPerson  *int64 `json:"service_per_person,omitempty"`
}

type Response struct {
	ElectricityPerKWH int64     `json:"electricity_per_kwh"`
	WaterPerPerson    int64     `json:"water_per_person"`
	InternetPerRoom   int64     `json:"internet_per_room"`
	ServicePerPerson  int64     `json:"service_per_person"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ErrNonPositiveRate rejects zero or negative rates before they can poison a
// billing run.
var ErrNonPositiveRate = errors.New("non_positive_rate")
