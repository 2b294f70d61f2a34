package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickgrocery/internal/model"
	"quickgrocery/internal/service"
)

type mockInventoryService struct {
	mock.Mock
}

func (m *mockInventoryService) CreateProduct(ctx context.Context, in *service.ProductInput, actor service.Actor) (*model.Product, error) {
	args := m.Called(ctx, in, actor)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockInventoryService) UpdateProduct(ctx context.Context, id string, in *service.ProductInput, actor service.Actor) (*model.Product, error) {
	args := m.Called(ctx, id, in, actor)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockInventoryService) DeleteProduct(ctx context.Context, id string, actor service.Actor) error {
	return m.Called(ctx, id, actor).Error(0)
}

func (m *mockInventoryService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *mockInventoryService) ListProducts(ctx context.Context, category string) ([]model.Product, error) {
	args := m.Called(ctx, category)
	p, _ := args.Get(0).([]model.Product)
	return p, args.Error(1)
}

func (m *mockInventoryService) FrequentProducts(ctx context.Context, userID string) ([]model.Product, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).([]model.Product)
	return p, args.Error(1)
}

func (m *mockInventoryService) Categories() []string {
	return m.Called().Get(0).([]string)
}

func inventoryApp(svc service.InventoryService) *fiber.App {
	admin := &model.User{Name: "Admin", Email: "admin@shop.in", Role: model.RoleAdmin}
	admin.ID = "a1"

	h := NewInventoryHandler(svc)
	app := fiber.New()
	app.Get("/products", h.GetProducts)
	app.Get("/products/frequent", asUser(customer), h.GetFrequentProducts)
	app.Get("/products/:id", h.GetProduct)
	app.Post("/products", asUser(admin), h.CreateProduct)
	app.Delete("/products/:id", asUser(admin), h.DeleteProduct)
	return app
}

func TestCreateProduct_PassesActor(t *testing.T) {
	svc := new(mockInventoryService)
	created := &model.Product{Name: "Bread"}
	svc.On("CreateProduct", mock.Anything, mock.Anything, service.Actor{ID: "a1", Name: "Admin", Email: "admin@shop.in"}).
		Return(created, nil).Once()
	svc.On("CreateProduct", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &service.ValidationError{Field: "ProductInput.Name", Message: "required"}).Once()

	app := inventoryApp(svc)
	status, _ := do(t, app, "POST", "/products", `{"name":"Bread","price":"40","category":"Bakery and Biscuits","stock_count":5}`)
	assert.Equal(t, http.StatusCreated, status)

	status, body := do(t, app, "POST", "/products", `{"price":"40"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ProductInput.Name", body["field"])
}

func TestGetProducts_UnknownCategory(t *testing.T) {
	svc := new(mockInventoryService)
	svc.On("ListProducts", mock.Anything, "Toys").Return(nil, &service.ValidationError{Field: "category", Message: "unknown"}).Once()

	status, _ := do(t, inventoryApp(svc), "GET", "/products?category=Toys", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	svc := new(mockInventoryService)
	svc.On("DeleteProduct", mock.Anything, "gone", mock.Anything).Return(&service.ProductNotFoundError{ProductID: "gone"}).Once()

	status, body := do(t, inventoryApp(svc), "DELETE", "/products/gone", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "product_not_found", body["code"])
}

func TestGetFrequentProducts(t *testing.T) {
	svc := new(mockInventoryService)
	svc.On("FrequentProducts", mock.Anything, "u1").Return([]model.Product{{Name: "Milk"}}, nil).Once()

	req := httptest.NewRequest("GET", "/products/frequent", nil)
	resp, err := inventoryApp(svc).Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var products []model.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, products, 1)
	assert.Equal(t, "Milk", products[0].Name)
	svc.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
	svc.AssertExpectations(t)
}
