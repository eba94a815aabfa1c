package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	MarkPaid(ctx context.Context, id string) (*Response, error)
	Void(ctx context.Context, id string) (*Response, error)
	RenderPDF(ctx context.Context, id string) (io.Reader, error)
}

type ListRequest struct {
	Month       *int    `json:"month,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Status      *string `json:"status,omitempty"`
	ApartmentID *string `json:"apartment_id,omitempty"`
}

type Response struct {
	ID                string     `json:"id"`
	InvoiceNumber     string     `json:"invoice_number"`
	ApartmentID       string     `json:"apartment_id"`
	Month             int        `json:"month"`
	Year              int        `json:"year"`
	Rent              int64      `json:"rent"`
	RoomElectricity   int64      `json:"room_electricity"`
	SharedElectricity int64      `json:"shared_electricity"`
	Electricity       int64      `json:"electricity"`
	Water             int64      `json:"water"`
	Internet          int64      `json:"internet"`
	Service           int64      `json:"service"`
	Other             int64      `json:"other"`
	OtherDescription  string     `json:"other_description,omitempty"`
	Total             int64      `json:"total"`
	TenantCount       int        `json:"tenant_count"`
	Status            string     `json:"status"`
	DueDate           time.Time  `json:"due_date"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

var (
	ErrNotFound      = errors.New("not_found")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrAlreadyPaid   = errors.New("invoice_already_paid")
	ErrInvoiceVoided = errors.New("invoice_voided")
)

func ParseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(value)
}
