package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
	"quickgrocery/pkg/validator"
)

// Actor is the admin making a catalog change.
type Actor struct {
	ID    string
	Name  string
	Email string
}

type ProductInput struct {
	Name       string          `json:"name" validate:"required,max=255"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	Category   string          `json:"category" validate:"category"`
	Size       string          `json:"size" validate:"max=50"`
	StockCount int             `json:"stock_count" validate:"gte=0"`
	Image      string          `json:"image"`
}

type InventoryService interface {
	CreateProduct(ctx context.Context, in *ProductInput, actor Actor) (*model.Product, error)
	UpdateProduct(ctx context.Context, id string, in *ProductInput, actor Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string, actor Actor) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, category string) ([]model.Product, error)
	// FrequentProducts returns what the user buys most often, for quick reordering.
	FrequentProducts(ctx context.Context, userID string) ([]model.Product, error)
	Categories() []string
}

const (
	frequentOrderWindow  = 10
	frequentProductLimit = 4
)

type inventoryService struct {
	productRepo repository.ProductRepository
	statsRepo   repository.StatsRepository
	publisher   Publisher
}

func NewInventoryService(pRepo repository.ProductRepository, statsRepo repository.StatsRepository, publisher Publisher) InventoryService {
	return &inventoryService{
		productRepo: pRepo,
		statsRepo:   statsRepo,
		publisher:   publisherOrNop(publisher),
	}
}

func validateInput(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		return &ValidationError{Field: errs[0].FailedField, Message: errs[0].Error()}
	}
	return nil
}

func validateProduct(in *ProductInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	// Prices are stored as numeric(12,2); anything finer would be rounded by one store and kept by the other.
	if !in.Price.Equal(in.Price.Round(2)) {
		return validationError("price", "price must have at most 2 decimal places")
	}
	return nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, in *ProductInput, actor Actor) (*model.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:     in.Name,
		Price:    in.Price,
		Category: in.Category,
		Size:     in.Size,
		Image:    in.Image,
	}
	product.SetStockCount(in.StockCount)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	log.Info().Str("product_id", product.ID).Str("actor", actor.Email).Msg("Product created")
	s.publisher.Publish(EventProductCreated, productEvent(product, actor, fmt.Sprintf("%s created product '%s'", actor.Name, product.Name)))
	return product, nil
}

// UpdateProduct replaces the editable fields under a row lock. Stock always goes through
// SetStockCount so the in-stock flag cannot drift.
func (s *inventoryService) UpdateProduct(ctx context.Context, id string, in *ProductInput, actor Actor) (*model.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	var oldStock int
	updated, err := s.productRepo.Update(ctx, id, func(p *model.Product) error {
		oldStock = p.StockCount
		p.Name = in.Name
		p.Price = in.Price
		p.Category = in.Category
		p.Size = in.Size
		p.Image = in.Image
		p.SetStockCount(in.StockCount)
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, err
	}

	payload := productEvent(updated, actor, fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name))
	payload["old_stock"] = oldStock
	s.publisher.Publish(EventProductUpdated, payload)
	if oldStock != updated.StockCount {
		s.publisher.Publish(EventStockUpdate, StockChange{
			ProductID:  updated.ID,
			Name:       updated.Name,
			StockCount: updated.StockCount,
			Stock:      updated.Stock,
		})
	}
	return updated, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id string, actor Actor) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ProductNotFoundError{ProductID: id}
		}
		return err
	}

	log.Info().Str("product_id", id).Str("actor", actor.Email).Msg("Product deleted")
	s.publisher.Publish(EventProductDeleted, map[string]interface{}{
		"product_id": id,
		"user":       actorPayload(actor),
		"message":    fmt.Sprintf("%s deleted a product", actor.Name),
	})
	return nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	return product, err
}

func (s *inventoryService) ListProducts(ctx context.Context, category string) ([]model.Product, error) {
	if category != "" && !model.IsValidCategory(category) {
		return nil, validationError("category", "unknown category %q", category)
	}
	return s.productRepo.FindAll(ctx, category)
}

// FrequentProducts looks at the user's last ten delivered orders and returns up to four
// products that are still in the catalog, most frequent first.
func (s *inventoryService) FrequentProducts(ctx context.Context, userID string) ([]model.Product, error) {
	ids, err := s.statsRepo.FrequentProducts(ctx, userID, frequentOrderWindow, frequentProductLimit)
	if err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		product, err := s.productRepo.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, nil
}

func (s *inventoryService) Categories() []string {
	out := make([]string, len(model.Categories))
	copy(out, model.Categories)
	return out
}

func productEvent(p *model.Product, actor Actor, message string) map[string]interface{} {
	return map[string]interface{}{
		"product": map[string]interface{}{
			"id":          p.ID,
			"name":        p.Name,
			"category":    p.Category,
			"price":       p.Price,
			"stock_count": p.StockCount,
			"stock":       p.Stock,
		},
		"user":    actorPayload(actor),
		"message": message,
	}
}

func actorPayload(actor Actor) map[string]interface{} {
	return map[string]interface{}{
		"id":    actor.ID,
		"name":  actor.Name,
		"email": actor.Email,
	}
}
