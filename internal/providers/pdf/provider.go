// Package pdf renders invoices with maroto.
package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
}

// InvoiceData is the print-ready view of one room invoice. Amounts arrive
// pre-formatted; the renderer does layout only.
type InvoiceData struct {
	HouseName     string
	InvoiceNumber string
	RoomNumber    string
	Period        string
	IssueDate     string
	DueDate       string
	TenantCount   int

	Items []InvoiceItem

	Total string
}

type InvoiceItem struct {
	Description string
	Amount      string
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
