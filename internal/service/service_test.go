package service

import (
	"context"
	"errors"
	"testing"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	cmd_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/command"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository/repotest"
	command_handler "github.com/RoyceAzure/lab/devstore/internal/handler/command"
	mock_producer "github.com/RoyceAzure/lab/devstore/internal/infra/producer/mock"
	"github.com/RoyceAzure/lab/devstore/internal/infra/repository/redis_repo"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addOrder(t *testing.T, store *repotest.Store, product *model.Product, branchID string, quantity int) *model.Order {
	cart := model.NewCart("user-1")
	_, err := cart.AddItem(product.ID, product.ProductNumber, product.Price, quantity)
	require.NoError(t, err)
	require.NoError(t, cart.SetCheckedOut())

	order, err := model.NewOrder(cart, cart.UserRefID, branchID)
	require.NoError(t, err)
	require.NoError(t, store.Orders().Add(context.Background(), order))
	return order
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(repotest.NewStore())

	user, err := svc.CreateUser(ctx, "alice", "alice@example.com", "0912", model.UserRoleCustomer)
	require.NoError(t, err)
	require.Equal(t, 1, user.UserNumber)
	require.Equal(t, model.UserStatusActive, user.Status)

	got, err := svc.GetUserByNumber(ctx, user.UserNumber)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = svc.CreateUser(ctx, "alice", "other@example.com", "", model.UserRoleCustomer)
	require.ErrorIs(t, err, model.ErrInvalidState)

	_, err = svc.CreateUser(ctx, "al", "not-an-email", "", "Guest")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 3)

	_, err = svc.GetUser(ctx, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestProductService(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewProductService(store)

	prices := []string{"9.99", "109.95", "22.3"}
	var created []*model.Product
	for i, price := range prices {
		p, err := svc.CreateProduct(ctx, CreateProductParams{
			Title:    []string{"Shirt", "Backpack", "Jacket"}[i],
			Price:    decimal.RequireFromString(price),
			Category: "clothing",
			Rating:   model.Rating{Rate: decimal.RequireFromString("3.9"), Count: 120},
		})
		require.NoError(t, err)
		created = append(created, p)
	}

	page, err := svc.ListProducts(ctx, ListQuery{Page: 1, PageSize: 2, Order: "price desc"})
	require.NoError(t, err)
	require.Equal(t, int64(3), page.TotalCount)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Backpack", page.Items[0].Title)
	assert.Equal(t, "Jacket", page.Items[1].Title)

	// 無法辨識的排序欄位回到預設 (商品編號)
	page, err = svc.ListProducts(ctx, ListQuery{Order: "rating desc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, created[0].ID, page.Items[0].ID)

	_, err = svc.CreateProduct(ctx, CreateProductParams{Title: "Free", Price: decimal.Zero, Category: "misc"})
	require.ErrorIs(t, err, model.ErrValidation)

	branch, err := model.NewBranch("Downtown")
	require.NoError(t, err)
	store.AddBranch(branch)
	addOrder(t, store, created[1], branch.ID, 1)

	err = svc.DeleteProduct(ctx, created[1].ProductNumber)
	require.ErrorIs(t, err, model.ErrInvalidState)
	_, err = svc.GetProduct(ctx, created[1].ProductNumber)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, created[0].ProductNumber))
	_, err = svc.GetProduct(ctx, created[0].ProductNumber)
	require.ErrorIs(t, err, model.ErrNotFound)

	require.ErrorIs(t, svc.DeleteProduct(ctx, 999), model.ErrNotFound)
}

func TestProductService_UpdateAndCategories(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewProductService(store)

	shirt, err := svc.CreateProduct(ctx, CreateProductParams{Title: "Shirt", Price: decimal.NewFromInt(10), Category: "clothing"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductParams{Title: "Ring", Price: decimal.NewFromInt(99), Category: "jewelery"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductParams{Title: "Jacket", Price: decimal.NewFromInt(50), Category: "clothing"})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, shirt.ProductNumber, CreateProductParams{
		Title:    "Slim Shirt",
		Price:    decimal.RequireFromString("12.5"),
		Category: "clothing",
		Rating:   model.Rating{Rate: decimal.NewFromInt(4), Count: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, shirt.ID, updated.ID)
	assert.NotNil(t, updated.UpdatedAt)

	got, err := svc.GetProduct(ctx, shirt.ProductNumber)
	require.NoError(t, err)
	assert.Equal(t, "Slim Shirt", got.Title)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))

	_, err = svc.UpdateProduct(ctx, shirt.ProductNumber, CreateProductParams{Title: "", Price: decimal.NewFromInt(1), Category: "clothing"})
	require.ErrorIs(t, err, model.ErrValidation)
	got, err = svc.GetProduct(ctx, shirt.ProductNumber)
	require.NoError(t, err)
	assert.Equal(t, "Slim Shirt", got.Title)

	_, err = svc.UpdateProduct(ctx, 999, CreateProductParams{Title: "Ghost", Price: decimal.NewFromInt(1), Category: "misc"})
	require.ErrorIs(t, err, model.ErrNotFound)

	categories, err := svc.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"clothing", "jewelery"}, categories)

	page, err := svc.ListProductsByCategory(ctx, "clothing", ListQuery{Order: "price"})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.TotalCount)
	assert.Equal(t, "Slim Shirt", page.Items[0].Title)
	assert.Equal(t, "Jacket", page.Items[1].Title)

	_, err = svc.ListProductsByCategory(ctx, " ", ListQuery{})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewUserService(store)

	alice, err := svc.CreateUser(ctx, "alice", "alice@example.com", "", model.UserRoleCustomer)
	require.NoError(t, err)
	bob, err := svc.CreateUser(ctx, "bobby", "bobby@example.com", "", model.UserRoleCustomer)
	require.NoError(t, err)

	cart := model.NewCart(alice.ID)
	_, err = cart.AddItem("product-1", 1, decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	require.NoError(t, cart.SetCheckedOut())
	order, err := model.NewOrder(cart, alice.ID, "branch-1")
	require.NoError(t, err)
	require.NoError(t, store.Orders().Add(ctx, order))

	err = svc.DeleteUser(ctx, alice.UserNumber)
	require.ErrorIs(t, err, model.ErrInvalidState)
	_, err = svc.GetUser(ctx, alice.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, bob.UserNumber))
	_, err = svc.GetUser(ctx, bob.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	require.ErrorIs(t, svc.DeleteUser(ctx, bob.UserNumber), model.ErrNotFound)
}

func TestBranchService(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewBranchService(store)

	used, err := svc.CreateBranch(ctx, "Downtown")
	require.NoError(t, err)
	unused, err := svc.CreateBranch(ctx, "Airport")
	require.NoError(t, err)

	_, err = svc.CreateBranch(ctx, "  ")
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = svc.CreateBranch(ctx, "Downtown")
	require.ErrorIs(t, err, model.ErrInvalidState)

	product, err := model.NewProduct("Widget", "", decimal.NewFromInt(10), "misc", "", model.Rating{})
	require.NoError(t, err)
	store.AddProduct(product)
	addOrder(t, store, product, used.ID, 1)

	require.ErrorIs(t, svc.DeleteBranch(ctx, used.ID), model.ErrInvalidState)
	require.NoError(t, svc.DeleteBranch(ctx, unused.ID))
	_, err = svc.GetBranch(ctx, unused.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestOrderService(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewOrderService(store)

	product, err := model.NewProduct("Widget", "", decimal.NewFromInt(10), "misc", "", model.Rating{})
	require.NoError(t, err)
	store.AddProduct(product)

	small := addOrder(t, store, product, "branch-1", 1)
	large := addOrder(t, store, product, "branch-1", 10)

	page, err := svc.ListOrders(ctx, ListQuery{Order: "totalamount desc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, large.ID, page.Items[0].ID)
	assert.True(t, page.Items[0].TotalAmount.Equal(decimal.NewFromInt(80)))

	confirmed, err := svc.ConfirmOrder(ctx, small.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.UpdatedAt)

	_, err = svc.CancelOrder(ctx, small.ID)
	require.ErrorIs(t, err, model.ErrInvalidState)
	_, err = svc.ConfirmOrder(ctx, small.ID)
	require.ErrorIs(t, err, model.ErrInvalidState)

	cancelled, err := svc.CancelOrder(ctx, large.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	_, err = svc.CancelOrder(ctx, large.ID)
	require.ErrorIs(t, err, model.ErrInvalidState)

	got, err := svc.GetOrder(ctx, large.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusCancelled, got.Status)

	_, err = svc.ConfirmOrder(ctx, "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCartService(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctrl := gomock.NewController(t)
	eventProducer := mock_producer.NewMockICartEventProducer(ctrl)
	store := repotest.NewStore()
	cartRepo := redis_repo.NewCartRepo(client)
	logger := zerolog.Nop()
	svc := NewCartService(cartRepo, command_handler.NewCartCommandHandler(cartRepo, store, eventProducer, &logger))

	var users []*model.User
	for _, name := range []string{"alice", "bob"} {
		u, err := model.NewUser(name, name+"@example.com", "", model.UserRoleCustomer)
		require.NoError(t, err)
		store.AddUser(u)
		users = append(users, u)
	}
	product, err := model.NewProduct("Widget", "", decimal.NewFromInt(10), "misc", "", model.Rating{})
	require.NoError(t, err)
	store.AddProduct(product)

	first, err := svc.CreateCart(ctx, users[0].UserNumber, []cmd_model.CartItemInput{{ProductNumber: product.ProductNumber, Quantity: 4}})
	require.NoError(t, err)
	require.True(t, first.GetTotalAmount().Equal(decimal.NewFromInt(36)))

	second, err := svc.CreateCart(ctx, users[1].UserNumber, []cmd_model.CartItemInput{{ProductNumber: product.ProductNumber, Quantity: 1}})
	require.NoError(t, err)

	updated, err := svc.UpdateCart(ctx, second.ID, []cmd_model.CartItemInput{{ProductNumber: product.ProductNumber, Quantity: 2}})
	require.NoError(t, err)
	require.Equal(t, 2, updated.GetTotalItemCount())

	eventProducer.EXPECT().ProduceCartCheckedOutEvent(gomock.Any(), first.ID).Return(nil)
	checkedOut, err := svc.CheckoutCart(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, model.CartStatusCheckedOut, checkedOut.Status)

	page, err := svc.ListCarts(ctx, ListQuery{Order: "status desc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, first.ID, page.Items[0].ID)

	page, err = svc.ListCarts(ctx, ListQuery{PageSize: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(2), page.TotalCount)

	require.NoError(t, svc.DeleteCart(ctx, second.ID))
	_, err = svc.GetCart(ctx, second.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	eventProducer.EXPECT().ProduceCartCheckedOutEvent(gomock.Any(), gomock.Any()).Times(0)
	_, err = svc.CheckoutCart(ctx, first.ID)
	require.ErrorIs(t, err, model.ErrInvalidState)
}

func TestDeleteProduct_RollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := repotest.NewStore()
	svc := NewProductService(store)

	product, err := svc.CreateProduct(ctx, CreateProductParams{Title: "Widget", Price: decimal.NewFromInt(1), Category: "misc"})
	require.NoError(t, err)

	store.FailOn(repotest.OpCommit, errors.New("connection reset"))
	err = svc.DeleteProduct(ctx, product.ProductNumber)
	require.True(t, model.IsRetryable(err))

	store.FailOn(repotest.OpCommit, nil)
	_, err = svc.GetProduct(ctx, product.ProductNumber)
	require.NoError(t, err)
}
