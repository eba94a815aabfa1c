package service

import (
	"context"
	"strings"
	"time"

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
	repo  repository.Repository[tenantdomain.Tenant]
}

func New(p Params) tenantdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tenant.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[tenantdomain.Tenant](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req tenantdomain.CreateRequest) (*tenantdomain.Response, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, tenantdomain.ErrInvalidName
	}

	now := time.Now().UTC()
	tenant := &tenantdomain.Tenant{
		ID:                s.genID.Generate(),
		FullName:          fullName,
		Phone:             strings.TrimSpace(req.Phone),
		IDCard:            strings.TrimSpace(req.IDCard),
		NonResidentSigner: req.NonResidentSigner,
		Notes:             strings.TrimSpace(req.Notes),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	return s.toResponse(tenant), nil
}

func (s *Service) List(ctx context.Context) ([]tenantdomain.Response, error) {
	items, err := s.repo.Find(ctx, &tenantdomain.Tenant{})
	if err != nil {
		return nil, err
	}

	resp := make([]tenantdomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, *s.toResponse(item))
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*tenantdomain.Response, error) {
	tenant, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(tenant), nil
}

func (s *Service) Update(ctx context.Context, req tenantdomain.UpdateRequest) (*tenantdomain.Response, error) {
	tenant, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return nil, tenantdomain.ErrInvalidName
		}
		tenant.FullName = fullName
	}
	if req.Phone != nil {
		tenant.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.IDCard != nil {
		tenant.IDCard = strings.TrimSpace(*req.IDCard)
	}
	if req.NonResidentSigner != nil {
		tenant.NonResidentSigner = *req.NonResidentSigner
	}
	if req.Notes != nil {
		tenant.Notes = strings.TrimSpace(*req.Notes)
	}

	tenant.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, tenant.ID.String(), tenant); err != nil {
		return nil, err
	}

	return s.toResponse(tenant), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tenant, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	// Tenants bound to an active contract keep their record.
	var active int64
	err = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM contract_tenants ct
		 JOIN contracts c ON c.id = ct.contract_id
		 WHERE ct.tenant_id = ? AND c.status = 'ACTIVE'`,
		tenant.ID,
	).Scan(&active).Error
	if err != nil {
		return err
	}
	if active > 0 {
		return tenantdomain.ErrTenantOnActiveContract
	}

	return s.repo.Delete(ctx, tenant.ID.String())
}

func (s *Service) find(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	tenantID, err := tenantdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, tenantdomain.ErrInvalidID
	}

	tenant, err := s.repo.FindOne(ctx, &tenantdomain.Tenant{ID: tenantID})
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, tenantdomain.ErrNotFound
	}
	return tenant, nil
}

func (s *Service) toResponse(t *tenantdomain.Tenant) *tenantdomain.Response {
	return &tenantdomain.Response{
		ID:                t.ID.String(),
		FullName:          t.FullName,
		Phone:             t.Phone,
		IDCard:            t.IDCard,
		NonResidentSigner: t.NonResidentSigner,
		Notes:             t.Notes,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}
