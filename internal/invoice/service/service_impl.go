package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	apartmentdomain "nhatro/internal/apartment/domain"
	invoicedomain "nhatro/internal/invoice/domain"
	"nhatro/internal/providers/pdf"
	"nhatro/pkg/repository"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
	PDF pdf.Provider
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	pdf  pdf.Provider
	repo repository.Repository[invoicedomain.Invoice]
}

func New(p Params) invoicedomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("invoice.service"),
		pdf:  p.PDF,
		repo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListRequest) ([]invoicedomain.Response, error) {
	stmt := s.db.WithContext(ctx).Model(&invoicedomain.Invoice{})

	if req.Month != nil {
		stmt = stmt.Where("month = ?", *req.Month)
	}
	if req.Year != nil {
		stmt = stmt.Where("year = ?", *req.Year)
	}
	if req.Status != nil {
		status := invoicedomain.InvoiceStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		switch status {
		case invoicedomain.InvoiceStatusPending, invoicedomain.InvoiceStatusPaid, invoicedomain.InvoiceStatusVoid:
		default:
			return nil, invoicedomain.ErrInvalidStatus
		}
		stmt = stmt.Where("status = ?", status)
	}
	if req.ApartmentID != nil {
		apartmentID, err := invoicedomain.ParseID(strings.TrimSpace(*req.ApartmentID))
		if err != nil {
			return nil, invoicedomain.ErrInvalidID
		}
		stmt = stmt.Where("apartment_id = ?", apartmentID)
	}

	var items []invoicedomain.Invoice
	if err := stmt.Order("year DESC, month DESC, invoice_number ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	resp := make([]invoicedomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Response, error) {
	invoice, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(invoice), nil
}

func (s *Service) MarkPaid(ctx context.Context, id string) (*invoicedomain.Response, error) {
	invoice, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == invoicedomain.InvoiceStatusPaid {
		return nil, invoicedomain.ErrAlreadyPaid
	}
	if invoice.Status == invoicedomain.InvoiceStatusVoid {
		return nil, invoicedomain.ErrInvoiceVoided
	}

	now := time.Now().UTC()
	invoice.Status = invoicedomain.InvoiceStatusPaid
	invoice.PaidAt = &now
	invoice.UpdatedAt = now

	if err := s.db.WithContext(ctx).Save(invoice).Error; err != nil {
		return nil, err
	}

	return toResponse(invoice), nil
}

func (s *Service) Void(ctx context.Context, id string) (*invoicedomain.Response, error) {
	invoice, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == invoicedomain.InvoiceStatusPaid {
		return nil, invoicedomain.ErrAlreadyPaid
	}
	if invoice.Status == invoicedomain.InvoiceStatusVoid {
		return nil, invoicedomain.ErrInvoiceVoided
	}

	now := time.Now().UTC()
	invoice.Status = invoicedomain.InvoiceStatusVoid
	invoice.UpdatedAt = now

	if err := s.db.WithContext(ctx).Save(invoice).Error; err != nil {
		return nil, err
	}

	return toResponse(invoice), nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) (io.Reader, error) {
	invoice, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	roomNumber := invoice.ApartmentID.String()
	var apartment apartmentdomain.Apartment
	if err := s.db.WithContext(ctx).
		Where("id = ?", invoice.ApartmentID).
		First(&apartment).Error; err == nil {
		roomNumber = apartment.RoomNumber
	}

	items := []pdf.InvoiceItem{
		{Description: "Rent", Amount: formatVND(invoice.Rent)},
		{Description: "Electricity (room meter)", Amount: formatVND(invoice.RoomElectricity)},
		{Description: "Electricity (shared)", Amount: formatVND(invoice.SharedElectricity)},
		{Description: "Water", Amount: formatVND(invoice.Water)},
		{Description: "Internet", Amount: formatVND(invoice.Internet)},
		{Description: "Service", Amount: formatVND(invoice.Service)},
	}
	if invoice.Other != 0 {
		description := invoice.OtherDescription
		if description == "" {
			description = "Other"
		}
		items = append(items, pdf.InvoiceItem{Description: description, Amount: formatVND(invoice.Other)})
	}

	return s.pdf.GenerateInvoice(ctx, pdf.InvoiceData{
		HouseName:     "Nha Tro",
		InvoiceNumber: invoice.InvoiceNumber,
		RoomNumber:    roomNumber,
		Period:        fmt.Sprintf("%02d/%04d", invoice.Month, invoice.Year),
		IssueDate:     invoice.CreatedAt.Format("2006-01-02"),
		DueDate:       invoice.DueDate.Format("2006-01-02"),
		TenantCount:   invoice.TenantCount,
		Items:         items,
		Total:         formatVND(invoice.Total),
	})
}

func (s *Service) find(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	invoiceID, err := invoicedomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, invoicedomain.ErrInvalidID
	}

	invoice, err := s.repo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID})
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return invoice, nil
}

var vndPrinter = message.NewPrinter(language.Vietnamese)

func formatVND(amount int64) string {
	return vndPrinter.Sprintf("%d", amount)
}

func toResponse(i *invoicedomain.Invoice) *invoicedomain.Response {
	return &invoicedomain.Response{
		ID:                i.ID.String(),
		InvoiceNumber:     i.InvoiceNumber,
		ApartmentID:       i.ApartmentID.String(),
		Month:             i.Month,
		Year:              i.Year,
		Rent:              i.Rent,
		RoomElectricity:   i.RoomElectricity,
		SharedElectricity: i.SharedElectricity,
		Electricity:       i.Electricity,
		Water:             i.Water,
		Internet:          i.Internet,
		Service:           i.Service,
		Other:             i.Other,
		OtherDescription:  i.OtherDescription,
		Total:             i.Total,
		TenantCount:       i.TenantCount,
		Status:            string(i.Status),
		DueDate:           i.DueDate,
		PaidAt:            i.PaidAt,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}
