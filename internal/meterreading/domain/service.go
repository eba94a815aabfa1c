package domain

import (
	"context"
	"errors"
	"time"

	"nhatro/internal/billing/engine"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CurrentPeriod(ctx context.Context) (engine.Period, error)

	GetBuildingReadings(ctx context.Context) ([]BuildingReadingResponse, error)
	UpsertBuildingReading(ctx context.Context, req UpsertBuildingRequest) (*BuildingReadingResponse, error)

	ListRoomReadings(ctx context.Context) ([]RoomReadingResponse, error)
	UpsertRoomReading(ctx context.Context, req UpsertRoomRequest) (*RoomReadingResponse, error)

	// Snapshot assembles the full meter state for the current period, for
	// the billing run and the rollover transition. Rooms without a stored
	// reading get a zero register.
	Snapshot(ctx context.Context) (engine.MeterState, error)

	// Rollover applies the pure period transition and persists the next
	// period's registers in one transaction. Irreversible.
	Rollover(ctx context.Context) (engine.Period, error)
}

type UpsertBuildingRequest struct {
	Phase    string `json:"phase"`
	Previous *int64 `json:"previous,omitempty"`
	Current  *int64 `json:"current,omitempty"`
}

type BuildingReadingResponse struct {
	Phase       string    `json:"phase"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Previous    int64     `json:"previous"`
	Current     int64     `json:"current"`
	Consumption int64     `json:"consumption"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertRoomRequest edits a room register. Usage and Current are
// alternatives: setting Usage recomputes Current, setting Previous/Current
// recomputes Usage. Sending both Current and Usage is rejected.
type UpsertRoomRequest struct {
	ApartmentID string `json:"apartment_id"`
	Previous    *int64 `json:"previous,omitempty"`
	Current     *int64 `json:"current,omitempty"`
	Usage       *int64 `json:"usage,omitempty"`
}

type RoomReadingResponse struct {
	ApartmentID string    `json:"apartment_id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Previous    int64     `json:"previous"`
	Current     int64     `json:"current"`
	Usage       int64     `json:"usage"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrInvalidPhase     = errors.New("invalid_phase")
	ErrNegativeReading  = errors.New("negative_reading")
	ErrAmbiguousUsage   = errors.New("ambiguous_usage_edit")
	ErrInvalidApartment = errors.New("invalid_apartment")
	ErrUnknownApartment = errors.New("unknown_apartment")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
