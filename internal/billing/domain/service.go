package domain

import (
	"context"
	"errors"

	invoicedomain "nhatro/internal/invoice/domain"
)

type Service interface {
	// Preview computes candidate invoice lines for the current period
	// without persisting anything.
	Preview(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// Generate computes and persists invoices for the current period.
	// Rooms that already carry an invoice for the period are skipped, so
	// re-running after a partial failure only fills the gaps.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

type GenerateRequest struct {
	Adjustments []AdjustmentRequest `json:"adjustments,omitempty"`
	// DueInDays overrides the default payment window.
	DueInDays *int `json:"due_in_days,omitempty"`
}

type AdjustmentRequest struct {
	ApartmentID string `json:"apartment_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type GenerateResult struct {
	Month     int                      `json:"month"`
	Year      int                      `json:"year"`
	Generated int                      `json:"generated"`
	Skipped   int                      `json:"skipped"`
	Invoices  []invoicedomain.Response `json:"invoices"`
}

var (
	ErrInvalidApartment    = errors.New("invalid_apartment")
	ErrUnknownApartment    = errors.New("unknown_apartment")
	ErrDuplicateAdjustment = errors.New("duplicate_adjustment")
	ErrInvalidDueDays      = errors.New("invalid_due_days")
)
