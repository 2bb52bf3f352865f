package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RoyceAzure/lab/devstore/internal/api/handler"
	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository/repotest"
	command_handler "github.com/RoyceAzure/lab/devstore/internal/handler/command"
	mock_producer "github.com/RoyceAzure/lab/devstore/internal/infra/producer/mock"
	"github.com/RoyceAzure/lab/devstore/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/devstore/internal/service"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string) (bool, error) { return false, nil }

type RouterTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	producer *mock_producer.MockICartEventProducer
	store    *repotest.Store
	server   *Server
	router   http.Handler
}

func (s *RouterTestSuite) SetupTest() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { client.Close() })

	logger := zerolog.Nop()
	s.ctrl = gomock.NewController(s.T())
	s.producer = mock_producer.NewMockICartEventProducer(s.ctrl)
	s.store = repotest.NewStore()
	cartRepo := redis_repo.NewCartRepo(client)
	cmdHandler := command_handler.NewCartCommandHandler(cartRepo, s.store, s.producer, &logger)

	s.server = NewServer(
		handler.NewUserHandler(service.NewUserService(s.store)),
		handler.NewProductHandler(service.NewProductService(s.store)),
		handler.NewBranchHandler(service.NewBranchService(s.store)),
		handler.NewCartHandler(service.NewCartService(cartRepo, cmdHandler)),
		handler.NewOrderHandler(service.NewOrderService(s.store)),
	)
	s.router = SetupRouter(s.server, nil, &logger)
}

func (s *RouterTestSuite) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			s.Require().NoError(json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

// seed 建立一位顧客與一項單價 10 的商品
func (s *RouterTestSuite) seed() {
	rec, _ := s.do(http.MethodPost, "/api/v1/users", map[string]any{"username": "alice", "email": "alice@example.com"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	rec, _ = s.do(http.MethodPost, "/api/v1/users", map[string]any{"username": "bobby", "email": "bobby@example.com"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	rec, _ = s.do(http.MethodPost, "/api/v1/products", map[string]any{"title": "Widget", "price": 10, "category": "misc"})
	s.Require().Equal(http.StatusCreated, rec.Code)
}

func (s *RouterTestSuite) createCart(userNumber, quantity int) (string, *httptest.ResponseRecorder) {
	rec, env := s.do(http.MethodPost, "/api/v1/carts", map[string]any{
		"user_number": userNumber,
		"items":       []map[string]int{{"product_number": 1, "quantity": quantity}},
	})
	var cart struct {
		ID          string `json:"id"`
		TotalAmount string `json:"total_amount"`
	}
	if rec.Code == http.StatusCreated {
		s.Require().NoError(json.Unmarshal(env.Data, &cart))
	}
	return cart.ID, rec
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) TestHealthz() {
	rec, env := s.do(http.MethodGet, "/healthz", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("ok", env.Message)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *RouterTestSuite) TestCartLifecycle() {
	s.seed()

	id, rec := s.createCart(1, 5)
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.NotEmpty(id)

	rec, env := s.do(http.MethodGet, "/api/v1/carts/"+id, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var cart struct {
		Status      string `json:"status"`
		TotalAmount string `json:"total_amount"`
		Version     int64  `json:"version"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &cart))
	s.Equal("Active", cart.Status)
	s.Equal("45", cart.TotalAmount)

	rec, _ = s.do(http.MethodPut, "/api/v1/carts/"+id, map[string]any{
		"items": []map[string]int{{"product_number": 1, "quantity": 1}},
	})
	s.Equal(http.StatusOK, rec.Code)

	// 同一顧客只能有一台 active 購物車
	_, rec = s.createCart(1, 1)
	s.Equal(http.StatusConflict, rec.Code)

	s.producer.EXPECT().ProduceCartCheckedOutEvent(gomock.Any(), id).Return(nil)
	rec, env = s.do(http.MethodPost, "/api/v1/carts/"+id+"/checkout", nil)
	s.Equal(http.StatusAccepted, rec.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &cart))
	s.Equal("CheckedOut", cart.Status)

	rec, env = s.do(http.MethodPost, "/api/v1/carts/"+id+"/checkout", nil)
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(env.Message, "Only active carts with items can be checked out")

	rec, _ = s.do(http.MethodDelete, "/api/v1/carts/"+id, nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/carts?size=10&order=status%20desc", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var page struct {
		TotalCount int64 `json:"total_count"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Equal(int64(1), page.TotalCount)
}

func (s *RouterTestSuite) TestCartErrors() {
	s.seed()

	rec, env := s.do(http.MethodGet, "/api/v1/carts/missing", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.NotEmpty(env.Message)

	_, rec = s.createCart(1, 21)
	s.Equal(http.StatusBadRequest, rec.Code)

	_, rec = s.createCart(99, 1)
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/carts", `{"user_number": "one"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/carts", `{"user_number": 1, "coupon": "FREE"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestCheckout_PublishFailureIsUnavailable() {
	s.seed()
	id, rec := s.createCart(2, 1)
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.producer.EXPECT().ProduceCartCheckedOutEvent(gomock.Any(), id).Return(errors.New("broker down"))
	rec, env := s.do(http.MethodPost, "/api/v1/carts/"+id+"/checkout", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal(http.StatusText(http.StatusServiceUnavailable), env.Message)
}

func (s *RouterTestSuite) TestUserAndProductRoutes() {
	s.seed()

	rec, env := s.do(http.MethodGet, "/api/v1/users/number/1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &user))
	s.Equal("alice", user.Username)

	rec, _ = s.do(http.MethodGet, "/api/v1/users/"+user.ID, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/users/number/abc", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/v1/products", map[string]any{"title": "", "price": 0, "category": "misc"})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	var violations []struct {
		Field string `json:"field"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &violations))
	s.Len(violations, 2)

	rec, _ = s.do(http.MethodGet, "/api/v1/products/1", nil)
	s.Equal(http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodDelete, "/api/v1/products/1", nil)
	s.Equal(http.StatusNoContent, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/products/1", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterTestSuite) TestProductCatalogRoutes() {
	s.seed()
	rec, _ := s.do(http.MethodPost, "/api/v1/products", map[string]any{"title": "Hoodie", "price": 30, "category": "clothing"})
	s.Require().Equal(http.StatusCreated, rec.Code)

	id, rec := s.createCart(1, 5)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec, env := s.do(http.MethodPut, "/api/v1/products/1", map[string]any{
		"title": "Widget Pro", "price": 20, "category": "clothing",
		"rating": map[string]any{"rate": 4.5, "count": 3},
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	var product struct {
		Title    string `json:"title"`
		Price    string `json:"price"`
		Category string `json:"category"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &product))
	s.Equal("Widget Pro", product.Title)
	s.Equal("20", product.Price)

	// 購物車保留加入當下的單價
	rec, env = s.do(http.MethodGet, "/api/v1/carts/"+id, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var cart struct {
		TotalAmount string `json:"total_amount"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &cart))
	s.Equal("45", cart.TotalAmount)

	rec, env = s.do(http.MethodPut, "/api/v1/products/1", map[string]any{"title": "", "price": -1, "category": "clothing"})
	s.Require().Equal(http.StatusBadRequest, rec.Code)
	var violations []struct {
		Field string `json:"field"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &violations))
	s.Len(violations, 2)

	rec, _ = s.do(http.MethodPut, "/api/v1/products/99", map[string]any{"title": "Ghost", "price": 1, "category": "misc"})
	s.Equal(http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/products/categories", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var categories struct {
		Categories []string `json:"categories"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &categories))
	s.Equal([]string{"clothing"}, categories.Categories)

	rec, env = s.do(http.MethodGet, "/api/v1/products/category/clothing?order=price%20desc", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var page struct {
		TotalCount int64 `json:"total_count"`
		Items      []struct {
			Title string `json:"title"`
		} `json:"items"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Equal(int64(2), page.TotalCount)
	s.Require().Len(page.Items, 2)
	s.Equal("Hoodie", page.Items[0].Title)

	rec, env = s.do(http.MethodGet, "/api/v1/products/category/misc", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Zero(page.TotalCount)
}

func (s *RouterTestSuite) TestDeleteUserRoute() {
	s.seed()

	rec, env := s.do(http.MethodGet, "/api/v1/users/number/1", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var user struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &user))

	cart := model.NewCart(user.ID)
	_, err := cart.AddItem("product-1", 1, decimal.NewFromInt(10), 1)
	s.Require().NoError(err)
	s.Require().NoError(cart.SetCheckedOut())
	order, err := model.NewOrder(cart, user.ID, "branch-1")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Orders().Add(context.Background(), order))

	rec, _ = s.do(http.MethodDelete, "/api/v1/users/number/1", nil)
	s.Equal(http.StatusConflict, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/api/v1/users/number/2", nil)
	s.Equal(http.StatusNoContent, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/users/number/2", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodDelete, "/api/v1/users/number/2", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	rec, _ = s.do(http.MethodDelete, "/api/v1/users/number/zero", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestBranchAndOrderRoutes() {
	rec, env := s.do(http.MethodPost, "/api/v1/branches", map[string]any{"name": "Downtown"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var branch struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &branch))

	rec, _ = s.do(http.MethodGet, "/api/v1/branches/"+branch.ID, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/orders/missing/confirm", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/v1/orders", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var page struct {
		TotalCount int64 `json:"total_count"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &page))
	s.Zero(page.TotalCount)

	rec, _ = s.do(http.MethodDelete, "/api/v1/branches/"+branch.ID, nil)
	s.Equal(http.StatusNoContent, rec.Code)
}

func TestSetupRouter_RateLimitsCartWrites(t *testing.T) {
	logger := zerolog.Nop()
	store := repotest.NewStore()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctrl := gomock.NewController(t)
	cartRepo := redis_repo.NewCartRepo(client)
	cmdHandler := command_handler.NewCartCommandHandler(cartRepo, store, mock_producer.NewMockICartEventProducer(ctrl), &logger)
	server := NewServer(
		handler.NewUserHandler(service.NewUserService(store)),
		handler.NewProductHandler(service.NewProductService(store)),
		handler.NewBranchHandler(service.NewBranchService(store)),
		handler.NewCartHandler(service.NewCartService(cartRepo, cmdHandler)),
		handler.NewOrderHandler(service.NewOrderService(store)),
	)
	r := SetupRouter(server, denyLimiter{}, &logger)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/carts", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/carts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
