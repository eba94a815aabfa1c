package service

import (
	"context"
	"strings"
	"time"

	apartmentdomain "nhatro/internal/apartment/domain"
	billingdomain "nhatro/internal/billing/domain"
	"nhatro/internal/billing/engine"
	"nhatro/internal/clock"
	contractdomain "nhatro/internal/contract/domain"
	invoicedomain "nhatro/internal/invoice/domain"
	meterdomain "nhatro/internal/meterreading/domain"
	"nhatro/internal/invoice/format"
	"nhatro/internal/metrics"
	settingsdomain "nhatro/internal/settings/domain"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultDueInDays = 7

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Meters    meterdomain.Service
	Contracts contractdomain.Service
	Settings  settingsdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	meters    meterdomain.Service
	contracts contractdomain.Service
	settings  settingsdomain.Service
	metrics   *metrics.BillingMetrics
}

func New(p Params) billingdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("billing.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		meters:    p.Meters,
		contracts: p.Contracts,
		settings:  p.Settings,
		metrics:   metrics.Billing(),
	}
}

func (s *Service) Preview(ctx context.Context, req billingdomain.GenerateRequest) (*billingdomain.GenerateResult, error) {
	run, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &billingdomain.GenerateResult{
		Month:     run.period.Month,
		Year:      run.period.Year,
		Generated: len(run.lines),
		Skipped:   run.skipped,
		Invoices:  make([]invoicedomain.Response, 0, len(run.lines)),
	}
	for i := range run.lines {
		invoice, err := s.buildInvoice(&run.lines[i], run, i)
		if err != nil {
			return nil, err
		}
		result.Invoices = append(result.Invoices, *toInvoiceResponse(invoice))
	}
	return result, nil
}

func (s *Service) Generate(ctx context.Context, req billingdomain.GenerateRequest) (*billingdomain.GenerateResult, error) {
	started := s.clock.Now()

	run, err := s.prepare(ctx, req)
	if err != nil {
		s.metrics.IncRun(metrics.RunOutcomeError)
		return nil, err
	}

	invoices := make([]*invoicedomain.Invoice, 0, len(run.lines))
	for i := range run.lines {
		invoice, err := s.buildInvoice(&run.lines[i], run, i)
		if err != nil {
			s.metrics.IncRun(metrics.RunOutcomeError)
			return nil, err
		}
		invoices = append(invoices, invoice)
	}

	if len(invoices) > 0 {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, invoice := range invoices {
				if err := tx.Create(invoice).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.metrics.IncRun(metrics.RunOutcomeError)
			return nil, err
		}
	}

	s.metrics.IncRun(metrics.RunOutcomeSuccess)
	s.metrics.AddInvoices(metrics.InvoiceResultGenerated, len(invoices))
	s.metrics.AddInvoices(metrics.InvoiceResultSkipped, run.skipped)
	s.metrics.ObserveRunDuration(s.clock.Now().Sub(started))

	s.log.Info("billing run complete",
		zap.Int("month", run.period.Month),
		zap.Int("year", run.period.Year),
		zap.Int("generated", len(invoices)),
		zap.Int("skipped", run.skipped),
	)

	result := &billingdomain.GenerateResult{
		Month:     run.period.Month,
		Year:      run.period.Year,
		Generated: len(invoices),
		Skipped:   run.skipped,
		Invoices:  make([]invoicedomain.Response, 0, len(invoices)),
	}
	for _, invoice := range invoices {
		result.Invoices = append(result.Invoices, *toInvoiceResponse(invoice))
	}
	return result, nil
}

// billingRun holds everything assembled for one generation pass.
type billingRun struct {
	period      engine.Period
	lines       []engine.Line
	tenantCount map[snowflake.ID]int
	skipped     int
	sequence    int64
	dueDate     time.Time
	now         time.Time
}

func (s *Service) prepare(ctx context.Context, req billingdomain.GenerateRequest) (*billingRun, error) {
	dueInDays := defaultDueInDays
	if req.DueInDays != nil {
		if *req.DueInDays <= 0 {
			return nil, billingdomain.ErrInvalidDueDays
		}
		dueInDays = *req.DueInDays
	}

	state, err := s.meters.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	occupancy, err := s.contracts.Occupancy(ctx)
	if err != nil {
		return nil, err
	}

	rates, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var apartments []apartmentdomain.Apartment
	if err := s.db.WithContext(ctx).Order("room_number ASC").Find(&apartments).Error; err != nil {
		return nil, err
	}
	apartmentIDs := make(map[snowflake.ID]struct{}, len(apartments))

	occupancies := make([]engine.Occupancy, 0, len(apartments))
	tenantCount := make(map[snowflake.ID]int, len(apartments))
	for i := range apartments {
		apartmentIDs[apartments[i].ID] = struct{}{}
		count := occupancy[apartments[i].ID]
		if count == 0 {
			continue
		}
		occupancies = append(occupancies, engine.Occupancy{
			ApartmentID: apartments[i].ID,
			TenantCount: count,
			Rent:        apartments[i].MonthlyRent(),
		})
		tenantCount[apartments[i].ID] = count
	}

	adjustments, err := parseAdjustments(req.Adjustments, apartmentIDs)
	if err != nil {
		return nil, err
	}

	invoiced, invoiceRows, err := s.invoicedRooms(ctx, state.Period)
	if err != nil {
		return nil, err
	}
	skipped := 0
	for _, occ := range occupancies {
		if _, ok := invoiced[occ.ApartmentID]; ok {
			skipped++
		}
	}

	lines, err := engine.ComputeInvoices(engine.Input{
		Building:    state.Building,
		Rooms:       state.Rooms,
		Occupancies: occupancies,
		Rates: engine.Rates{
			ElectricityPerKWH: rates.ElectricityPerKWH,
			WaterPerPerson:    rates.WaterPerPerson,
			InternetPerRoom:   rates.InternetPerRoom,
			ServicePerPerson:  rates.ServicePerPerson,
		},
		Adjustments: adjustments,
		AlreadyInvoiced: func(id snowflake.ID) bool {
			_, ok := invoiced[id]
			return ok
		},
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return &billingRun{
		period:      state.Period,
		lines:       lines,
		tenantCount: tenantCount,
		skipped:     skipped,
		sequence:    invoiceRows,
		dueDate:     now.AddDate(0, 0, dueInDays),
		now:         now,
	}, nil
}

func (s *Service) buildInvoice(line *engine.Line, run *billingRun, index int) (*invoicedomain.Invoice, error) {
	number, err := format.FormatInvoiceNumber(
		format.DefaultInvoiceNumberTemplate,
		run.period.Month,
		run.period.Year,
		run.sequence+int64(index)+1,
	)
	if err != nil {
		return nil, err
	}

	return &invoicedomain.Invoice{
		ID:                s.genID.Generate(),
		InvoiceNumber:     number,
		ApartmentID:       line.ApartmentID,
		Month:             run.period.Month,
		Year:              run.period.Year,
		Rent:              line.Rent,
		RoomElectricity:   line.RoomElectricity,
		SharedElectricity: line.SharedElectricity,
		Electricity:       line.Electricity,
		Water:             line.Water,
		Internet:          line.Internet,
		Service:           line.Service,
		Other:             line.Other,
		OtherDescription:  line.OtherDescription,
		Total:             line.Total,
		TenantCount:       run.tenantCount[line.ApartmentID],
		Status:            invoicedomain.InvoiceStatusPending,
		DueDate:           run.dueDate,
		CreatedAt:         run.now,
		UpdatedAt:         run.now,
	}, nil
}

// invoicedRooms returns the apartments already holding a live invoice for
// the period, plus the total row count including voided ones. A voided
// invoice does not block regeneration, but it keeps its number, so the
// sequence continues past it.
func (s *Service) invoicedRooms(ctx context.Context, period engine.Period) (map[snowflake.ID]struct{}, int64, error) {
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("month = ? AND year = ? AND status <> ?", period.Month, period.Year, invoicedomain.InvoiceStatusVoid).
		Pluck("apartment_id", &ids).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = s.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("month = ? AND year = ?", period.Month, period.Year).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	invoiced := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		invoiced[id] = struct{}{}
	}
	return invoiced, total, nil
}

func parseAdjustments(reqs []billingdomain.AdjustmentRequest, apartments map[snowflake.ID]struct{}) (map[snowflake.ID]engine.Adjustment, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	adjustments := make(map[snowflake.ID]engine.Adjustment, len(reqs))
	for _, req := range reqs {
		apartmentID, err := snowflake.ParseString(strings.TrimSpace(req.ApartmentID))
		if err != nil {
			return nil, billingdomain.ErrInvalidApartment
		}
		if _, ok := apartments[apartmentID]; !ok {
			return nil, billingdomain.ErrUnknownApartment
		}
		if _, ok := adjustments[apartmentID]; ok {
			return nil, billingdomain.ErrDuplicateAdjustment
		}
		adjustments[apartmentID] = engine.Adjustment{
			Amount:      req.Amount,
			Description: strings.TrimSpace(req.Description),
		}
	}
	return adjustments, nil
}

func toInvoiceResponse(i *invoicedomain.Invoice) *invoicedomain.Response {
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
