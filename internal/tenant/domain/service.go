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
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	FullName          string `json:"full_name"`
	Phone             string `json:"phone"`
	IDCard            string `json:"id_card"`
	NonResidentSigner bool   `json:"non_resident_signer"`
	Notes             string `json:"notes"`
}

type UpdateRequest struct {
	ID                string  `json:"id"`
	FullName          *string `json:"full_name,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	IDCard            *string `json:"id_card,omitempty"`
	NonResidentSigner *bool   `json:"non_resident_signer,omitempty"`
	Notes             *string `json:"notes,omitempty"`
}

type Response struct {
	ID                string    `json:"id"`
	FullName          string    `json:"full_name"`
	Phone             string    `json:"phone"`
	IDCard            string    `json:"id_card"`
	NonResidentSigner bool      `json:"non_resident_signer"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrNotFound    = errors.New("not_found")
	ErrInvalidID   = errors.New("invalid_id")
	// ErrTenantOnActiveContract blocks deleting someone still housed.
	ErrTenantOnActiveContract = errors.New("tenant_on_active_contract")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
