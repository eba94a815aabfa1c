package service

import (
	"context"
	"strings"
	"time"

	apartmentdomain "nhatro/internal/apartment/domain"
	contractdomain "nhatro/internal/contract/domain"
	tenantdomain "nhatro/internal/tenant/domain"
	"nhatro/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	contracts repository.Repository[contractdomain.Contract]
}

func New(p Params) contractdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("contract.service"),
		genID:     p.GenID,
		contracts: repository.ProvideStore[contractdomain.Contract](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req contractdomain.CreateRequest) (*contractdomain.Response, error) {
	apartmentID, err := contractdomain.ParseID(strings.TrimSpace(req.ApartmentID))
	if err != nil {
		return nil, contractdomain.ErrInvalidApartment
	}
	if len(req.TenantIDs) == 0 {
		return nil, contractdomain.ErrNoTenants
	}
	if req.Deposit < 0 {
		return nil, contractdomain.ErrInvalidDeposit
	}

	tenantIDs := make([]snowflake.ID, 0, len(req.TenantIDs))
	for _, raw := range req.TenantIDs {
		id, err := contractdomain.ParseID(strings.TrimSpace(raw))
		if err != nil {
			return nil, contractdomain.ErrUnknownTenant
		}
		tenantIDs = append(tenantIDs, id)
	}

	now := time.Now().UTC()
	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = now
	}

	contract := &contractdomain.Contract{
		ID:          s.genID.Generate(),
		ApartmentID: apartmentID,
		StartDate:   startDate.UTC(),
		EndDate:     req.EndDate,
		Deposit:     req.Deposit,
		Status:      contractdomain.ContractStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var apartment apartmentdomain.Apartment
		if err := tx.Where("id = ?", apartmentID).First(&apartment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return contractdomain.ErrInvalidApartment
			}
			return err
		}

		// One active contract per apartment at a time.
		var activeCount int64
		if err := tx.Model(&contractdomain.Contract{}).
			Where("apartment_id = ? AND status = ?", apartmentID, contractdomain.ContractStatusActive).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount > 0 {
			return contractdomain.ErrApartmentOccupied
		}

		var tenantCount int64
		if err := tx.Model(&tenantdomain.Tenant{}).
			Where("id IN ?", tenantIDs).
			Count(&tenantCount).Error; err != nil {
			return err
		}
		if tenantCount != int64(len(tenantIDs)) {
			return contractdomain.ErrUnknownTenant
		}

		if err := tx.Create(contract).Error; err != nil {
			return err
		}
		for _, tenantID := range tenantIDs {
			link := contractdomain.ContractTenant{ContractID: contract.ID, TenantID: tenantID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.toResponse(ctx, contract)
}

func (s *Service) List(ctx context.Context) ([]contractdomain.Response, error) {
	items, err := s.contracts.Find(ctx, &contractdomain.Contract{})
	if err != nil {
		return nil, err
	}

	resp := make([]contractdomain.Response, 0, len(items))
	for _, item := range items {
		r, err := s.toResponse(ctx, item)
		if err != nil {
			return nil, err
		}
		resp = append(resp, *r)
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*contractdomain.Response, error) {
	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, contract)
}

func (s *Service) End(ctx context.Context, id string) (*contractdomain.Response, error) {
	contract, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.Status == contractdomain.ContractStatusEnded {
		return nil, contractdomain.ErrAlreadyEnded
	}

	now := time.Now().UTC()
	contract.Status = contractdomain.ContractStatusEnded
	contract.EndedAt = &now
	contract.UpdatedAt = now

	if err := s.db.WithContext(ctx).Save(contract).Error; err != nil {
		return nil, err
	}

	return s.toResponse(ctx, contract)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	contract, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if contract.Status == contractdomain.ContractStatusActive {
		return contractdomain.ErrDeleteActiveContract
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contract_id = ?", contract.ID).
			Delete(&contractdomain.ContractTenant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", contract.ID).Delete(&contractdomain.Contract{}).Error
	})
}

func (s *Service) Occupancy(ctx context.Context) (map[snowflake.ID]int, error) {
	var rows []struct {
		ApartmentID snowflake.ID `gorm:"column:apartment_id"`
		Residents   int          `gorm:"column:residents"`
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT c.apartment_id AS apartment_id, COUNT(t.id) AS residents
		 FROM contracts c
		 JOIN contract_tenants ct ON ct.contract_id = c.id
		 JOIN tenants t ON t.id = ct.tenant_id
		 WHERE c.status = ? AND t.non_resident_signer = ?
		 GROUP BY c.apartment_id`,
		contractdomain.ContractStatusActive,
		false,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	occupancy := make(map[snowflake.ID]int, len(rows))
	for _, row := range rows {
		occupancy[row.ApartmentID] = row.Residents
	}
	return occupancy, nil
}

func (s *Service) find(ctx context.Context, id string) (*contractdomain.Contract, error) {
	contractID, err := contractdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, contractdomain.ErrInvalidID
	}

	contract, err := s.contracts.FindOne(ctx, &contractdomain.Contract{ID: contractID})
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, contractdomain.ErrNotFound
	}
	return contract, nil
}

func (s *Service) toResponse(ctx context.Context, c *contractdomain.Contract) (*contractdomain.Response, error) {
	var links []contractdomain.ContractTenant
	if err := s.db.WithContext(ctx).
		Where("contract_id = ?", c.ID).
		Find(&links).Error; err != nil {
		return nil, err
	}

	tenantIDs := make([]string, 0, len(links))
	for _, link := range links {
		tenantIDs = append(tenantIDs, link.TenantID.String())
	}

	return &contractdomain.Response{
		ID:          c.ID.String(),
		ApartmentID: c.ApartmentID.String(),
		TenantIDs:   tenantIDs,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Deposit:     c.Deposit,
		Status:      string(c.Status),
		EndedAt:     c.EndedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}
