package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-api/internal/middleware"
	"catalog-api/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestProductHandler_GetAll(t *testing.T) {
	logger := zerolog.Nop()

	testProducts := []model.Product{
		{ID: 1, Name: "Laptop", Price: model.NewPrice(decimal.RequireFromString("1200.5")), CategoryID: 1},
		{ID: 2, Name: "Novel", Price: model.NewPrice(decimal.NewFromInt(20)), CategoryID: 2},
	}

	tests := []struct {
		name           string
		mockReturn     []model.Product
		mockError      error
		expectedStatus int
	}{
		{name: "Success", mockReturn: testProducts, expectedStatus: http.StatusOK},
		{name: "Service error", mockError: errors.New("database error"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			mockService.On("GetAll", mock.Anything).Return(tt.mockReturn, tt.mockError)

			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			w := httptest.NewRecorder()

			handler.GetAll(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.expectedStatus == http.StatusOK {
				var got []map[string]interface{}
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				require.Len(t, got, 2)
				assert.Equal(t, 1200.5, got[0]["price"])
				assert.Equal(t, float64(1), got[0]["categoryId"])
				assert.NotContains(t, got[0], "category")
			} else {
				body := decodeError(t, w)
				assert.Equal(t, model.ErrCodeInternalError, body.Error)
				assert.NotContains(t, body.Message, "database error")
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Create(t *testing.T) {
	logger := zerolog.Nop()

	created := &model.Product{ID: 9, Name: "Laptop", Price: model.NewPrice(decimal.NewFromInt(1200)), CategoryID: 1}

	tests := []struct {
		name           string
		body           string
		mockReturn     *model.Product
		mockError      error
		expectService  bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           `{"name":"Laptop","price":1200,"categoryId":1}`,
			mockReturn:     created,
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Client id ignored",
			body:           `{"id":500,"name":"Laptop","price":1200,"categoryId":1}`,
			mockReturn:     created,
			expectService:  true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Malformed JSON",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Trailing object",
			body:           `{"name":"Laptop","price":1200,"categoryId":1}{}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Trailing garbage",
			body:           `{"name":"Laptop","price":1200,"categoryId":1} x`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Wrong price type",
			body:           `{"name":"Laptop","price":true,"categoryId":1}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
		},
		{
			name:           "Invalid product",
			body:           `{"name":"  ","price":10,"categoryId":1}`,
			mockError:      model.NewDomainError(model.ErrCodeInvalidProduct, "Product name is required"),
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidProduct,
		},
		{
			name:           "Unknown category",
			body:           `{"name":"Laptop","price":10,"categoryId":99}`,
			mockError:      model.ErrCategoryNotFound,
			expectService:  true,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeCategoryNotFound,
		},
		{
			name:           "Service error",
			body:           `{"name":"Laptop","price":10,"categoryId":1}`,
			mockError:      errors.New("database error"),
			expectService:  true,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("Create", mock.Anything, mock.AnythingOfType("*model.ProductRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				assert.Equal(t, "/api/products/9", w.Header().Get("Location"))
				var got model.Product
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Equal(t, uint(9), got.ID)
			} else {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}

			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestProductHandler_Create_PassesRequest(t *testing.T) {
	mockService := new(MockProductService)
	handler := NewProductHandler(mockService, zerolog.Nop())

	mockService.On("Create", mock.Anything, mock.MatchedBy(func(req *model.ProductRequest) bool {
		return req.Name == "Pen" && req.Price.Equal(decimal.RequireFromString("1.25")) && req.CategoryID == 3
	})).Return(&model.Product{ID: 1}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString(`{"name":"Pen","price":"1.25","categoryId":3}`))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestProductHandler_GetByID(t *testing.T) {
	logger := zerolog.Nop()

	testProduct := &model.Product{ID: 1, Name: "Laptop", Price: model.NewPrice(decimal.NewFromInt(1200)), CategoryID: 1}

	tests := []struct {
		name           string
		param          string
		mockReturn     *model.Product
		mockError      error
		expectService  bool
		productID      uint
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			param:          "1",
			mockReturn:     testProduct,
			expectService:  true,
			productID:      1,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Product not found",
			param:          "999",
			mockError:      model.ErrProductNotFound,
			expectService:  true,
			productID:      999,
			expectedStatus: http.StatusNotFound,
			expectedCode:   model.ErrCodeProductNotFound,
		},
		{name: "Non-numeric id", param: "abc", expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidID},
		{name: "Zero id", param: "0", expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidID},
		{name: "Negative id", param: "-1", expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidID},
		{
			name:           "Service error",
			param:          "1",
			mockError:      errors.New("database error"),
			expectService:  true,
			productID:      1,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("GetByID", mock.Anything, tt.productID).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/products/"+tt.param, nil)
			req = withURLParam(req, "id", tt.param)
			w := httptest.NewRecorder()

			handler.GetByID(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_ErrorCarriesCorrelationID(t *testing.T) {
	mockService := new(MockProductService)
	handler := NewProductHandler(mockService, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/products/abc", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	req = withURLParam(req, "id", "abc")
	w := httptest.NewRecorder()

	middleware.RequestID(http.HandlerFunc(handler.GetByID)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "req-42", decodeError(t, w).CorrelationID)
}

func TestProductHandler_GetWithCategory(t *testing.T) {
	dtos := []model.ProductDto{
		{ProductID: 1, ProductName: "Laptop", CategoryName: "Electronics"},
		{ProductID: 2, ProductName: "Novel", CategoryName: "Books"},
	}

	mockService := new(MockProductService)
	handler := NewProductHandler(mockService, zerolog.Nop())
	mockService.On("GetWithCategory", mock.Anything).Return(dtos, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/with-category", nil)
	w := httptest.NewRecorder()

	handler.GetWithCategory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`[{"productId":1,"productName":"Laptop","categoryName":"Electronics"},{"productId":2,"productName":"Novel","categoryName":"Books"}]`,
		w.Body.String())
	mockService.AssertExpectations(t)
}

func TestProductHandler_BulkUpdatePrices(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		body           string
		expectedPct    string
		mockError      error
		expectedStatus int
		expectedCode   string
	}{
		{name: "Integer percentage", body: `10`, expectedPct: "10", expectedStatus: http.StatusOK},
		{name: "Negative fraction", body: `-5.5`, expectedPct: "-5.5", expectedStatus: http.StatusOK},
		{name: "Quoted number", body: `"12.5"`, expectedPct: "12.5", expectedStatus: http.StatusOK},
		{name: "Empty body", body: ``, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidJSON},
		{name: "Null", body: `null`, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidJSON},
		{name: "Not a number", body: `"ten"`, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidJSON},
		{name: "Object body", body: `{"pct":10}`, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidJSON},
		{name: "Two numbers", body: `10 20`, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidJSON},
		{name: "Number then object", body: `10{}`, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeInvalidJSON},
		{name: "Trailing whitespace", body: "10 \n", expectedPct: "10", expectedStatus: http.StatusOK},
		{
			name:           "Service error",
			body:           `10`,
			expectedPct:    "10",
			mockError:      errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectedPct != "" {
				var result *model.BulkUpdateResult
				if tt.mockError == nil {
					result = &model.BulkUpdateResult{Updated: 3}
				}
				want := decimal.RequireFromString(tt.expectedPct)
				mockService.On("BulkUpdatePrices", mock.Anything, mock.MatchedBy(func(pct decimal.Decimal) bool {
					return pct.Equal(want)
				})).Return(result, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/products/bulk-update-price", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.BulkUpdatePrices(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.JSONEq(t, `{"updated":3}`, w.Body.String())
			} else {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Error)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_GetPaged(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name             string
		query            string
		expectedPage     int
		expectedPageSize int
		expectService    bool
		expectedStatus   int
	}{
		{name: "Defaults", query: "", expectedPage: 1, expectedPageSize: 20, expectService: true, expectedStatus: http.StatusOK},
		{name: "Explicit values", query: "?page=2&pageSize=2", expectedPage: 2, expectedPageSize: 2, expectService: true, expectedStatus: http.StatusOK},
		{name: "Out of range passed to service", query: "?page=0&pageSize=500", expectedPage: 0, expectedPageSize: 500, expectService: true, expectedStatus: http.StatusOK},
		{name: "Max int page passed to service", query: "?page=9223372036854775807", expectedPage: math.MaxInt, expectedPageSize: 20, expectService: true, expectedStatus: http.StatusOK},
		{name: "Page beyond int range", query: "?page=9223372036854775808", expectedStatus: http.StatusBadRequest},
		{name: "Non-integer page", query: "?page=two", expectedStatus: http.StatusBadRequest},
		{name: "Non-integer pageSize", query: "?pageSize=1.5", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("GetPaged", mock.Anything, tt.expectedPage, tt.expectedPageSize).
					Return([]model.Product{}, nil)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/products/paged"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.GetPaged(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusBadRequest {
				assert.Equal(t, model.ErrCodeInvalidParameter, decodeError(t, w).Error)
			} else {
				assert.JSONEq(t, `[]`, w.Body.String())
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestProductHandler_Search(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		keyword string
	}{
		{name: "Keyword", query: "?keyword=lap", keyword: "lap"},
		{name: "Encoded wildcard", query: "?keyword=50%25", keyword: "50%"},
		{name: "Missing keyword", query: "", keyword: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, zerolog.Nop())
			mockService.On("Search", mock.Anything, tt.keyword).Return([]model.Product{{ID: 1, Name: "Laptop"}}, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/products/search"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.Search(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
