package service

import (
	"context"
	"strings"
	"time"

	apartmentdomain "nhatro/internal/apartment/domain"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  apartmentdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  apartmentdomain.Repository
	genID *snowflake.Node
}

func New(p Params) apartmentdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apartment.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req apartmentdomain.CreateRequest) (*apartmentdomain.Response, error) {
	roomNumber := strings.TrimSpace(req.RoomNumber)
	if roomNumber == "" {
		return nil, apartmentdomain.ErrInvalidRoomNumber
	}
	if req.DefaultRent <= 0 {
		return nil, apartmentdomain.ErrInvalidRent
	}
	if req.RentOverride != nil && *req.RentOverride <= 0 {
		return nil, apartmentdomain.ErrInvalidRent
	}

	existing, err := s.repo.FindByRoomNumber(ctx, s.db, roomNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apartmentdomain.ErrDuplicateRoom
	}

	floor := req.Floor
	if floor <= 0 {
		floor = 1
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}

	now := time.Now().UTC()
	apartment := &apartmentdomain.Apartment{
		ID:           s.genID.Generate(),
		RoomNumber:   roomNumber,
		Floor:        floor,
		DefaultRent:  req.DefaultRent,
		RentOverride: req.RentOverride,
		Notes:        strings.TrimSpace(req.Notes),
		Metadata:     metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, apartment); err != nil {
		return nil, err
	}

	return s.toResponse(apartment), nil
}

func (s *Service) List(ctx context.Context) ([]apartmentdomain.Response, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]apartmentdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *s.toResponse(&items[i]))
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*apartmentdomain.Response, error) {
	apartmentID, err := apartmentdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, apartmentdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, apartmentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apartmentdomain.ErrNotFound
	}

	return s.toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, req apartmentdomain.UpdateRequest) (*apartmentdomain.Response, error) {
	apartmentID, err := apartmentdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, apartmentdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, apartmentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apartmentdomain.ErrNotFound
	}

	if req.RoomNumber != nil {
		roomNumber := strings.TrimSpace(*req.RoomNumber)
		if roomNumber == "" {
			return nil, apartmentdomain.ErrInvalidRoomNumber
		}
		if roomNumber != item.RoomNumber {
			existing, err := s.repo.FindByRoomNumber(ctx, s.db, roomNumber)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, apartmentdomain.ErrDuplicateRoom
			}
		}
		item.RoomNumber = roomNumber
	}

	if req.Floor != nil {
		if *req.Floor <= 0 {
			return nil, apartmentdomain.ErrInvalidRoomNumber
		}
		item.Floor = *req.Floor
	}

	if req.DefaultRent != nil {
		if *req.DefaultRent <= 0 {
			return nil, apartmentdomain.ErrInvalidRent
		}
		item.DefaultRent = *req.DefaultRent
	}

	if req.ClearRentOverride {
		item.RentOverride = nil
	} else if req.RentOverride != nil {
		if *req.RentOverride <= 0 {
			return nil, apartmentdomain.ErrInvalidRent
		}
		item.RentOverride = req.RentOverride
	}

	if req.Notes != nil {
		item.Notes = strings.TrimSpace(*req.Notes)
	}

	if req.Metadata != nil {
		item.Metadata = req.Metadata
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	return s.toResponse(item), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	apartmentID, err := apartmentdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return apartmentdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, apartmentID)
	if err != nil {
		return err
	}
	if item == nil {
		return apartmentdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, apartmentID)
}

func (s *Service) toResponse(a *apartmentdomain.Apartment) *apartmentdomain.Response {
	return &apartmentdomain.Response{
		ID:           a.ID.String(),
		RoomNumber:   a.RoomNumber,
		Floor:        a.Floor,
		DefaultRent:  a.DefaultRent,
		RentOverride: a.RentOverride,
		MonthlyRent:  a.MonthlyRent(),
		Notes:        a.Notes,
		Metadata:     a.Metadata,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
