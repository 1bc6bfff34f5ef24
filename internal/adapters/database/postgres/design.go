package postgres

import (
	"context"
	"errors"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"gorm.io/gorm"
)

type DesignStorage struct {
	db *gorm.DB
}

func NewDesignStorage(db *gorm.DB) *DesignStorage {
	return &DesignStorage{
		db: db,
	}
}

// Create is a function that creates a new design in the database.
func (s *DesignStorage) Create(ctx context.Context, design *entity.Design) (*entity.Design, error) {
	err := s.db.WithContext(ctx).Create(design).Error
	return design, err
}

// Get is a function that gets a design from the database by id.
func (s *DesignStorage) Get(ctx context.Context, id string) (*entity.Design, error) {
	var design entity.Design
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&design).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ErrDesignNotFound
	}
	return &design, err
}

// GetAll is a function that gets all designs from the database.
func (s *DesignStorage) GetAll(ctx context.Context) ([]entity.Design, error) {
	var designs []entity.Design
	err := s.db.WithContext(ctx).Order("timestamp desc").Find(&designs).Error
	return designs, err
}

// Update is a function that updates a design in the database.
func (s *DesignStorage) Update(ctx context.Context, design *entity.Design) (*entity.Design, error) {
	res := s.db.WithContext(ctx).Model(&entity.Design{}).Where("id = ?", design.ID).Select("*").Updates(design)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errorz.ErrDesignNotFound
	}
	return design, nil
}

// Delete is a function that deletes a design from the database.
func (s *DesignStorage) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Design{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errorz.ErrDesignNotFound
	}
	return nil
}

// ReplaceAll swaps the whole table content inside one transaction.
func (s *DesignStorage) ReplaceAll(ctx context.Context, designs []entity.Design) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entity.Design{}).Error; err != nil {
			return err
		}
		if len(designs) == 0 {
			return nil
		}
		return tx.CreateInBatches(&designs, 50).Error
	})
}
