package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"product-service/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, payload model.Payload) (*model.Product, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) GetByName(ctx context.Context, name string) (*model.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id int64, payload model.Payload) (*model.Product, error) {
	args := m.Called(ctx, id, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) UpdateByName(ctx context.Context, name string, payload model.Payload) (*model.Product, error) {
	args := m.Called(ctx, name, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func testProduct() *model.Product {
	return &model.Product{
		ID:        1,
		Name:      "Pen",
		Price:     decimal.RequireFromString("10.50"),
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// withURLParams attaches chi route parameters to req.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestProductHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		mockReturn     []model.Product
		mockError      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Success",
			mockReturn:     []model.Product{*testProduct()},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Empty list",
			mockReturn:     []model.Product{},
			expectedStatus: http.StatusOK,
			expectedBody:   "[]\n",
		},
		{
			name:           "Service error",
			mockError:      model.NewPersistenceError("failed to list products", errors.New("db down")),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			if tt.mockError != nil {
				svc.On("List", mock.Anything).Return(nil, tt.mockError)
			} else {
				svc.On("List", mock.Anything).Return(tt.mockReturn, nil)
			}
			h := NewProductHandler(svc, zerolog.Nop())

			req := httptest.NewRequest(http.MethodGet, "/products", nil)
			rec := httptest.NewRecorder()
			h.List(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, rec.Body.String())
			}
			if tt.mockError != nil {
				assert.NotContains(t, rec.Body.String(), "db down")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *MockProductService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Success",
			body: `{"name":"Pen","price":10.50}`,
			setupMock: func(m *MockProductService) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(p model.Payload) bool {
					return string(p["name"]) == `"Pen"` && string(p["price"]) == "10.50"
				})).Return(testProduct(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed JSON",
			body:           `{"name":`,
			setupMock:      func(m *MockProductService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "Validation failed",
		},
		{
			name:           "Trailing data after object",
			body:           `{"name":"Pen","price":1} trailing-junk`,
			setupMock:      func(m *MockProductService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "Validation failed",
		},
		{
			name:           "Second JSON value",
			body:           `{"name":"Pen","price":1}{"name":"Ink","price":2}`,
			setupMock:      func(m *MockProductService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "Validation failed",
		},
		{
			name: "Trailing whitespace is fine",
			body: "{\"name\":\"Pen\",\"price\":10.50}\n\n",
			setupMock: func(m *MockProductService) {
				m.On("Create", mock.Anything, mock.Anything).Return(testProduct(), nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Body is not an object",
			body:           `[1,2,3]`,
			setupMock:      func(m *MockProductService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "Validation failed",
		},
		{
			name: "Conflict",
			body: `{"name":"Pen","price":1}`,
			setupMock: func(m *MockProductService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, model.NewConflictError("Pen"))
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Product already exists",
		},
		{
			name: "Empty body reaches validation",
			body: ``,
			setupMock: func(m *MockProductService) {
				m.On("Create", mock.Anything, model.Payload{}).Return(nil, model.NewValidationError([]model.Violation{
					{Field: "name", Reason: "field required"},
					{Field: "price", Reason: "field required"},
				}))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "Validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			tt.setupMock(svc)
			h := NewProductHandler(svc, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedError != "" {
				resp := decodeError(t, rec)
				assert.Equal(t, tt.expectedError, resp.Error)
				assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			} else {
				var p map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
				assert.Equal(t, 10.5, p["price"])
				assert.Equal(t, "2024-01-02T03:04:05Z", p["created_at"])
				assert.Contains(t, p, "description")
				assert.Nil(t, p["description"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_GetByID(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		setupMock      func(m *MockProductService)
		expectedStatus int
	}{
		{
			name: "Found",
			id:   "1",
			setupMock: func(m *MockProductService) {
				m.On("GetByID", mock.Anything, int64(1)).Return(testProduct(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Not found",
			id:   "99",
			setupMock: func(m *MockProductService) {
				m.On("GetByID", mock.Anything, int64(99)).Return(nil, model.NewNotFoundError(99))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Non-integer id",
			id:             "abc",
			setupMock:      func(m *MockProductService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockProductService)
			tt.setupMock(svc)
			h := NewProductHandler(svc, zerolog.Nop())

			req := httptest.NewRequest(http.MethodGet, "/products/"+tt.id, nil)
			req = withURLParams(req, map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()
			h.GetByID(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestProductHandler_GetByID_NotFoundBody(t *testing.T) {
	svc := new(MockProductService)
	svc.On("GetByID", mock.Anything, int64(7)).Return(nil, model.NewNotFoundError(7))
	h := NewProductHandler(svc, zerolog.Nop())

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/products/7", nil), map[string]string{"id": "7"})
	rec := httptest.NewRecorder()
	h.GetByID(rec, req)

	resp := decodeError(t, rec)
	assert.Equal(t, "Product not found", resp.Error)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product with id 7 not found", resp.Detail)
}

func TestProductHandler_Update(t *testing.T) {
	svc := new(MockProductService)
	updated := testProduct()
	updated.Price = decimal.RequireFromString("20")
	svc.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p model.Payload) bool {
		_, ok := p["price"]
		return ok && len(p) == 1
	})).Return(updated, nil)
	h := NewProductHandler(svc, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPut, "/products/1", strings.NewReader(`{"price":20}`))
	req = withURLParams(req, map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var p map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, float64(20), p["price"])
	svc.AssertExpectations(t)
}

func TestProductHandler_Delete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("Delete", mock.Anything, int64(1)).Return(testProduct(), nil)
		h := NewProductHandler(svc, zerolog.Nop())

		req := withURLParams(httptest.NewRequest(http.MethodDelete, "/products/1", nil), map[string]string{"id": "1"})
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp model.DeleteResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, model.DeleteResponse{Message: "Product deleted successfully", ID: 1, Name: "Pen"}, resp)
	})

	t.Run("Not found", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("Delete", mock.Anything, int64(2)).Return(nil, model.NewNotFoundError(2))
		h := NewProductHandler(svc, zerolog.Nop())

		req := withURLParams(httptest.NewRequest(http.MethodDelete, "/products/2", nil), map[string]string{"id": "2"})
		rec := httptest.NewRecorder()
		h.Delete(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProductHandler_ByName(t *testing.T) {
	t.Run("GetByName", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("GetByName", mock.Anything, "Blue Pen").Return(testProduct(), nil)
		h := NewProductHandler(svc, zerolog.Nop())

		req := httptest.NewRequest(http.MethodGet, "/products/name/Blue%20Pen", nil)
		req = withURLParams(req, map[string]string{"name": "Blue Pen"})
		rec := httptest.NewRecorder()
		h.GetByName(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Escaped slash is decoded", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("GetByName", mock.Anything, "A/B").Return(testProduct(), nil)
		h := NewProductHandler(svc, zerolog.Nop())

		req := httptest.NewRequest(http.MethodGet, "/products/name/A%2FB", nil)
		req = withURLParams(req, map[string]string{"name": "A%2FB"})
		rec := httptest.NewRecorder()
		h.GetByName(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("UpdateByName", func(t *testing.T) {
		svc := new(MockProductService)
		svc.On("UpdateByName", mock.Anything, "Pen", mock.Anything).Return(testProduct(), nil)
		h := NewProductHandler(svc, zerolog.Nop())

		req := httptest.NewRequest(http.MethodPut, "/products/name/Pen", strings.NewReader(`{"description":"new"}`))
		req = withURLParams(req, map[string]string{"name": "Pen"})
		rec := httptest.NewRecorder()
		h.UpdateByName(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})
}
