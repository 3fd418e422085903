package repository

import (
	"context"

	"gorm.io/gorm"

	"actilog/internal/model"
)

// CourtierRepository defines courtier persistence operations.
type CourtierRepository interface {
	Create(ctx context.Context, courtier *model.Courtier) error
	Update(ctx context.Context, courtier *model.Courtier) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Courtier, error)
	FindByName(ctx context.Context, name string) (*model.Courtier, error)
	List(ctx context.Context) ([]model.Courtier, error)
	ListActive(ctx context.Context) ([]model.Courtier, error)
	Count(ctx context.Context) (int64, error)
}

type courtierRepository struct {
	db *gorm.DB
}

// NewCourtierRepository builds a GORM-backed repository.
func NewCourtierRepository(db *gorm.DB) CourtierRepository {
	return &courtierRepository{db: db}
}

func (r *courtierRepository) Create(ctx context.Context, courtier *model.Courtier) error {
	return r.db.WithContext(ctx).Create(courtier).Error
}

func (r *courtierRepository) Update(ctx context.Context, courtier *model.Courtier) error {
	return r.db.WithContext(ctx).Save(courtier).Error
}

func (r *courtierRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Courtier{}, id).Error
}

func (r *courtierRepository) FindByID(ctx context.Context, id uint) (*model.Courtier, error) {
	var courtier model.Courtier
	if err := r.db.WithContext(ctx).First(&courtier, id).Error; err != nil {
		return nil, err
	}
	return &courtier, nil
}

func (r *courtierRepository) FindByName(ctx context.Context, name string) (*model.Courtier, error) {
	var courtier model.Courtier
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&courtier).Error; err != nil {
		return nil, err
	}
	return &courtier, nil
}

func (r *courtierRepository) List(ctx context.Context) ([]model.Courtier, error) {
	var courtiers []model.Courtier
	if err := r.db.WithContext(ctx).Order("name").Find(&courtiers).Error; err != nil {
		return nil, err
	}
	return courtiers, nil
}

func (r *courtierRepository) ListActive(ctx context.Context) ([]model.Courtier, error) {
	var courtiers []model.Courtier
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&courtiers).Error; err != nil {
		return nil, err
	}
	return courtiers, nil
}

func (r *courtierRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Courtier{}).Count(&n).Error
	return n, err
}
