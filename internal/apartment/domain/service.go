package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	RoomNumber   string            `json:"room_number"`
	Floor        int               `json:"floor"`
	DefaultRent  int64             `json:"default_rent"`
	RentOverride *int64            `json:"rent_override"`
	Notes        string            `json:"notes"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
}

type UpdateRequest struct {
	ID           string  `json:"id"`
	RoomNumber   *string `json:"room_number,omitempty"`
	Floor        *int    `json:"floor,omitempty"`
	DefaultRent  *int64  `json:"default_rent,omitempty"`
	RentOverride *int64  `json:"rent_override,omitempty"`
	// ClearRentOverride removes an existing override.
	ClearRentOverride bool    `json:"clear_rent_override,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	// Metadata, when present, replaces the stored map wholesale.
	Metadata datatypes.JSONMap `json:"metadata,omitempty"`
}

type Response struct {
	ID           string            `json:"id"`
	RoomNumber   string            `json:"room_number"`
	Floor        int               `json:"floor"`
	DefaultRent  int64             `json:"default_rent"`
	RentOverride *int64            `json:"rent_override,omitempty"`
	MonthlyRent  int64             `json:"monthly_rent"`
	Notes        string            `json:"notes"`
	Metadata     datatypes.JSONMap `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

var (
	ErrInvalidRoomNumber = errors.New("invalid_room_number")
	ErrInvalidRent       = errors.New("invalid_rent")
	ErrDuplicateRoom     = errors.New("duplicate_room_number")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidID         = errors.New("invalid_id")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
