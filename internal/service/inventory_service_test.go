package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

var testActor = Actor{ID: "a1", Name: "Admin", Email: "testActor@example.com"}

func validInput() *ProductInput {
	return &ProductInput{
		Name:       "Amul Butter 100g",
		Price:      decimal.RequireFromString("56"),
		Category:   "Dairy, Bread and Eggs",
		StockCount: 12,
	}
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	repo := new(mockProductRepo)
	pub := &recordingPublisher{}
	svc := NewInventoryService(repo, nil, pub)

	repo.On("Create", ctx, mock.MatchedBy(func(p *model.Product) bool {
		return p.Name == "Amul Butter 100g" && p.StockCount == 12 && p.Stock
	})).Return(nil).Once()

	product, err := svc.CreateProduct(ctx, validInput(), testActor)
	require.NoError(t, err)
	assert.True(t, product.Stock)
	assert.Equal(t, []string{EventProductCreated}, pub.types())
	repo.AssertExpectations(t)
}

func TestCreateProduct_Validation(t *testing.T) {
	cases := map[string]func(in *ProductInput){
		"missing name":     func(in *ProductInput) { in.Name = "" },
		"unknown category": func(in *ProductInput) { in.Category = "Toys" },
		"negative price":   func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) },
		"negative stock":   func(in *ProductInput) { in.StockCount = -3 },
		"sub-paisa price":  func(in *ProductInput) { in.Price = decimal.RequireFromString("19.999") },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := new(mockProductRepo)
			svc := NewInventoryService(repo, nil, nil)

			in := validInput()
			mutate(in)
			_, err := svc.CreateProduct(context.Background(), in, testActor)
			assert.ErrorIs(t, err, ErrValidation)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateProduct_KeepsStockFlagInSync(t *testing.T) {
	ctx := context.Background()
	repo := new(mockProductRepo)
	pub := &recordingPublisher{}
	svc := NewInventoryService(repo, nil, pub)

	existing := product("p1", "Butter", 50, 4)
	var applied model.Product
	repo.On("Update", ctx, "p1", mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(2).(func(p *model.Product) error)
			applied = existing
			require.NoError(t, fn(&applied))
		}).
		Return(&applied, nil).Once()

	in := validInput()
	in.StockCount = 0
	updated, err := svc.UpdateProduct(ctx, "p1", in, testActor)
	require.NoError(t, err)

	assert.Equal(t, 0, updated.StockCount)
	assert.False(t, updated.Stock)
	assert.Equal(t, "Amul Butter 100g", updated.Name)
	assert.Equal(t, []string{EventProductUpdated, EventStockUpdate}, pub.types())
	repo.AssertExpectations(t)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mockProductRepo)
	svc := NewInventoryService(repo, nil, nil)

	repo.On("Update", ctx, "nope", mock.Anything).Return(nil, repository.ErrNotFound).Once()

	_, err := svc.UpdateProduct(ctx, "nope", validInput(), testActor)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	repo := new(mockProductRepo)
	pub := &recordingPublisher{}
	svc := NewInventoryService(repo, nil, pub)

	repo.On("Delete", ctx, "p1").Return(nil).Once()
	repo.On("Delete", ctx, "nope").Return(repository.ErrNotFound).Once()

	require.NoError(t, svc.DeleteProduct(ctx, "p1", testActor))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "nope", testActor), ErrProductNotFound)
	assert.Equal(t, []string{EventProductDeleted}, pub.types())
}

func TestListProducts_RejectsUnknownCategory(t *testing.T) {
	repo := new(mockProductRepo)
	svc := NewInventoryService(repo, nil, nil)

	_, err := svc.ListProducts(context.Background(), "Toys")
	assert.ErrorIs(t, err, ErrValidation)

	repo.On("FindAll", mock.Anything, "Baby Care").Return([]model.Product{}, nil).Once()
	_, err = svc.ListProducts(context.Background(), "Baby Care")
	assert.NoError(t, err)
	assert.Len(t, svc.Categories(), len(model.Categories))
}

func TestFrequentProducts(t *testing.T) {
	ctx := context.Background()
	products := new(mockProductRepo)
	stats := new(mockStatsRepo)
	svc := NewInventoryService(products, stats, nil)

	milk := product("p1", "Milk", 30, 4)
	bread := product("p3", "Bread", 40, 0)
	stats.On("FrequentProducts", ctx, "u1", 10, 4).Return([]string{"p1", "gone", "p3"}, nil).Once()
	products.On("FindByID", ctx, "p1").Return(&milk, nil).Once()
	products.On("FindByID", ctx, "gone").Return(nil, repository.ErrNotFound).Once()
	products.On("FindByID", ctx, "p3").Return(&bread, nil).Once()

	got, err := svc.FrequentProducts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Milk", got[0].Name)
	assert.Equal(t, "Bread", got[1].Name)
	stats.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestFrequentProducts_NoHistory(t *testing.T) {
	ctx := context.Background()
	stats := new(mockStatsRepo)
	stats.On("FrequentProducts", ctx, "u2", 10, 4).Return([]string{}, nil).Once()

	got, err := NewInventoryService(new(mockProductRepo), stats, nil).FrequentProducts(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateProduct_AcceptsTrailingZeros(t *testing.T) {
	ctx := context.Background()
	repo := new(mockProductRepo)
	repo.On("Create", ctx, mock.Anything).Return(nil).Once()

	in := validInput()
	in.Price = decimal.RequireFromString("19.500")
	_, err := NewInventoryService(repo, nil, nil).CreateProduct(ctx, in, testActor)
	assert.NoError(t, err)
}
