package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, apartment *Apartment) error
	Update(ctx context.Context, db *gorm.DB, apartment *Apartment) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Apartment, error)
	FindByRoomNumber(ctx context.Context, db *gorm.DB, roomNumber string) (*Apartment, error)
	List(ctx context.Context, db *gorm.DB) ([]Apartment, error)
}
