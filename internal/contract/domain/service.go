package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	End(ctx context.Context, id string) (*Response, error)
	Delete(ctx context.Context, id string) error

	// Occupancy returns the billable headcount per apartment: tenants on
	// active contracts, non-resident signers excluded. Apartments without
	// an active contract are absent from the map.
	Occupancy(ctx context.Context) (map[snowflake.ID]int, error)
}

type CreateRequest struct {
	ApartmentID string    `json:"apartment_id"`
	TenantIDs   []string  `json:"tenant_ids"`
	StartDate   time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Deposit     int64     `json:"deposit"`
}

type Response struct {
	ID          string     `json:"id"`
	ApartmentID string     `json:"apartment_id"`
	TenantIDs   []string   `json:"tenant_ids"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Deposit     int64      `json:"deposit"`
	Status      string     `json:"status"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var (
	ErrInvalidApartment     = errors.New("invalid_apartment")
	ErrNoTenants            = errors.New("no_tenants")
	ErrUnknownTenant        = errors.New("unknown_tenant")
	ErrInvalidDeposit       = errors.New("invalid_deposit")
	ErrApartmentOccupied    = errors.New("apartment_already_contracted")
	ErrNotFound             = errors.New("not_found")
	ErrInvalidID            = errors.New("invalid_id")
	ErrAlreadyEnded         = errors.New("contract_already_ended")
	ErrDeleteActiveContract = errors.New("cannot_delete_active_contract")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
