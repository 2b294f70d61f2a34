package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quickgrocery/internal/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, category string) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// Update locks the row, applies fn and saves the result in one transaction.
	Update(ctx context.Context, id string, fn func(p *model.Product) error) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translateError(r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepo) FindAll(ctx context.Context, category string) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Order("name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, translateError(err)
	}
	return products, nil
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, id string, fn func(p *model.Product) error) (*model.Product, error) {
	var updated model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&updated, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&updated); err != nil {
			return err
		}
		return tx.Save(&updated).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &updated, nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
