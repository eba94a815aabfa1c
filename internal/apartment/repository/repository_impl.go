package repository

import (
	"context"
	"errors"

	apartmentdomain "nhatro/internal/apartment/domain"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() apartmentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, apartment *apartmentdomain.Apartment) error {
	return db.WithContext(ctx).Create(apartment).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, apartment *apartmentdomain.Apartment) error {
	return db.WithContext(ctx).Save(apartment).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&apartmentdomain.Apartment{}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*apartmentdomain.Apartment, error) {
	var apartment apartmentdomain.Apartment
	err := db.WithContext(ctx).Where("id = ?", id).First(&apartment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apartment, nil
}

func (r *repo) FindByRoomNumber(ctx context.Context, db *gorm.DB, roomNumber string) (*apartmentdomain.Apartment, error) {
	var apartment apartmentdomain.Apartment
	err := db.WithContext(ctx).Where("room_number = ?", roomNumber).First(&apartment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apartment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]apartmentdomain.Apartment, error) {
	var apartments []apartmentdomain.Apartment
	err := db.WithContext(ctx).Order("room_number ASC").Find(&apartments).Error
	return apartments, err
}
