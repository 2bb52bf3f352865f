// Package repotest 提供 IUnitOfWork 的記憶體實作，給 handler / service 測試使用
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/sorting"
)

// 可注入錯誤的操作名稱
const (
	OpOrdersAdd          = "orders.add"
	OpOrdersGetByCartRef = "orders.get_by_cart_ref"
	OpProductsExists     = "products.exists"
	OpBranchesFirst      = "branches.first"
	OpMarkPending        = "finalizations.mark_pending"
	OpMarkDone           = "finalizations.mark_done"
	OpCommit             = "commit"
)

type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users         map[string]model.User
	products      map[string]model.Product
	branches      map[string]model.Branch
	orders        map[string]model.Order
	finalizations map[string]model.CartFinalization

	userSeq    int
	productSeq int
	orderSeq   int64

	failures map[string]error
	calls    map[string]int
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]model.User),
		products:      make(map[string]model.Product),
		branches:      make(map[string]model.Branch),
		orders:        make(map[string]model.Order),
		finalizations: make(map[string]model.CartFinalization),
		failures:      make(map[string]error),
		calls:         make(map[string]int),
	}
}

// FailOn 之後每次呼叫 op 都回傳 err，err 為 nil 時取消
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls 回傳 op 被呼叫的次數
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// 呼叫端需持有 mu
func (s *Store) hit(op string) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) Users() repository.IUserRepository { return userRepo{s} }
func (s *Store) Products() repository.IProductRepository { return productRepo{s} }
func (s *Store) Branches() repository.IBranchRepository { return branchRepo{s} }
func (s *Store) Orders() repository.IOrderRepository { return orderRepo{s} }
func (s *Store) Finalizations() repository.ICartFinalizationRepository { return finalizationRepo{s} }

// Transaction fn 回傳錯誤時還原到交易前的狀態
func (s *Store) Transaction(ctx context.Context, fn func(tx repository.IUnitOfWork) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	err := fn(s)
	if err == nil {
		s.mu.Lock()
		err = s.hit(OpCommit)
		s.mu.Unlock()
	}
	if err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return model.Infra("commit transaction", err)
	}
	return nil
}

type snapshot struct {
	users         map[string]model.User
	products      map[string]model.Product
	branches      map[string]model.Branch
	orders        map[string]model.Order
	finalizations map[string]model.CartFinalization
	userSeq       int
	productSeq    int
	orderSeq      int64
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:         cloneMap(s.users),
		products:      cloneMap(s.products),
		branches:      cloneMap(s.branches),
		orders:        cloneMap(s.orders),
		finalizations: cloneMap(s.finalizations),
		userSeq:       s.userSeq,
		productSeq:    s.productSeq,
		orderSeq:      s.orderSeq,
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.products = snap.products
	s.branches = snap.branches
	s.orders = snap.orders
	s.finalizations = snap.finalizations
	s.userSeq = snap.userSeq
	s.productSeq = snap.productSeq
	s.orderSeq = snap.orderSeq
}

// 測試資料建立

func (s *Store) AddUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.UserNumber == 0 {
		s.userSeq++
		u.UserNumber = s.userSeq
	}
	s.users[u.ID] = *u
}

func (s *Store) AddProduct(p *model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ProductNumber == 0 {
		s.productSeq++
		p.ProductNumber = s.productSeq
	}
	s.products[p.ID] = *p
}

func (s *Store) AddBranch(b *model.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC().Add(time.Duration(len(s.branches)) * time.Millisecond)
	}
	s.branches[b.ID] = *b
}

// RemoveProduct 模擬商品在加入購物車後被刪除
func (s *Store) RemoveProduct(productNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.products {
		if p.ProductNumber == productNumber {
			delete(s.products, id)
		}
	}
}

func (s *Store) AllOrders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out
}

func (s *Store) Finalization(cartID string) (model.CartFinalization, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.finalizations[cartID]
	return f, ok
}

func copyOrder(o model.Order) model.Order {
	o.OrderItems = append([]model.OrderItem(nil), o.OrderItems...)
	return o
}

type userRepo struct{ s *Store }

func (r userRepo) find(match func(model.User) bool, what string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, model.NotFound("%s", what)
}

func (r userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id }, "user "+id)
}

func (r userRepo) GetByNumber(ctx context.Context, userNumber int) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.UserNumber == userNumber }, "user by number")
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username }, "user "+username)
}

func (r userRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return model.InvalidState("user %s already exists", user.Username)
		}
	}
	r.s.userSeq++
	user.UserNumber = r.s.userSeq
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return model.NotFound("user %s", id)
	}
	delete(r.s.users, id)
	return nil
}

type productRepo struct{ s *Store }

func (r productRepo) byNumber(n int) (model.Product, bool) {
	for _, p := range r.s.products {
		if p.ProductNumber == n {
			return p, true
		}
	}
	return model.Product{}, false
}

func (r productRepo) ExistsByNumber(ctx context.Context, productNumber int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(OpProductsExists); err != nil {
		return false, model.Infra("exists product", err)
	}
	_, ok := r.byNumber(productNumber)
	return ok, nil
}

func (r productRepo) GetByNumber(ctx context.Context, productNumber int) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.byNumber(productNumber)
	if !ok {
		return nil, model.NotFound("product %d", productNumber)
	}
	return &p, nil
}

func (r productRepo) GetMany(ctx context.Context, productNumbers []int) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, n := range productNumbers {
		if p, ok := r.byNumber(n); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r productRepo) Create(ctx context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.productSeq++
	product.ProductNumber = r.s.productSeq
	r.s.products[product.ID] = *product
	return nil
}

func (r productRepo) Update(ctx context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.byNumber(product.ProductNumber)
	if !ok {
		return model.NotFound("product %d", product.ProductNumber)
	}
	updated := *product
	updated.ID = existing.ID
	r.s.products[existing.ID] = updated
	return nil
}

func (r productRepo) Delete(ctx context.Context, productNumber int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.byNumber(productNumber)
	if !ok {
		return model.NotFound("product %d", productNumber)
	}
	delete(r.s.products, p.ID)
	return nil
}

func (r productRepo) GetPaged(ctx context.Context, p paging.Params, terms []sorting.Term) ([]model.Product, int64, error) {
	return r.page(func(model.Product) bool { return true }, p, terms)
}

func (r productRepo) GetPagedByCategory(ctx context.Context, category string, p paging.Params, terms []sorting.Term) ([]model.Product, int64, error) {
	return r.page(func(v model.Product) bool { return v.Category == category }, p, terms)
}

func (r productRepo) GetCategories(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range r.s.products {
		if _, ok := seen[v.Category]; ok {
			continue
		}
		seen[v.Category] = struct{}{}
		out = append(out, v.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r productRepo) page(match func(model.Product) bool, p paging.Params, terms []sorting.Term) ([]model.Product, int64, error) {
	r.s.mu.Lock()
	items := make([]model.Product, 0, len(r.s.products))
	for _, v := range r.s.products {
		if match(v) {
			items = append(items, v)
		}
	}
	r.s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		c := sorting.Compare(items[i], items[j], terms, compareProduct)
		if c != 0 {
			return c < 0
		}
		return items[i].ProductNumber < items[j].ProductNumber
	})
	start, end := paging.Window(len(items), p)
	return items[start:end], int64(len(items)), nil
}

func compareProduct(field sorting.Field, a, b model.Product) int {
	switch field {
	case repository.ProductSortNumber:
		return a.ProductNumber - b.ProductNumber
	case repository.ProductSortTitle:
		return strings.Compare(a.Title, b.Title)
	case repository.ProductSortPrice:
		return a.Price.Cmp(b.Price)
	case repository.ProductSortCategory:
		return strings.Compare(a.Category, b.Category)
	}
	return 0
}

type branchRepo struct{ s *Store }

func (r branchRepo) GetFirstAvailable(ctx context.Context) (*model.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(OpBranchesFirst); err != nil {
		return nil, model.Infra("first branch", err)
	}
	var first *model.Branch
	for _, b := range r.s.branches {
		b := b
		if first == nil || b.CreatedAt.Before(first.CreatedAt) ||
			(b.CreatedAt.Equal(first.CreatedAt) && b.ID < first.ID) {
			first = &b
		}
	}
	return first, nil
}

func (r branchRepo) GetByID(ctx context.Context, id string) (*model.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.branches[id]
	if !ok {
		return nil, model.NotFound("branch %s", id)
	}
	return &b, nil
}

func (r branchRepo) GetByName(ctx context.Context, name string) (*model.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.branches {
		if b.Name == name {
			b := b
			return &b, nil
		}
	}
	return nil, model.NotFound("branch %s", name)
}

func (r branchRepo) Create(ctx context.Context, branch *model.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.branches {
		if b.Name == branch.Name {
			return model.InvalidState("branch %s already exists", branch.Name)
		}
	}
	branch.CreatedAt = time.Now().UTC().Add(time.Duration(len(r.s.branches)) * time.Millisecond)
	r.s.branches[branch.ID] = *branch
	return nil
}

func (r branchRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.branches[id]; !ok {
		return model.NotFound("branch %s", id)
	}
	delete(r.s.branches, id)
	return nil
}

type orderRepo struct{ s *Store }

func (r orderRepo) Add(ctx context.Context, order *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(OpOrdersAdd); err != nil {
		return model.Infra("add order", err)
	}
	for _, o := range r.s.orders {
		if o.CartRefID == order.CartRefID {
			return model.InvalidState("order for cart %s already exists", order.CartRefID)
		}
	}
	r.s.orderSeq++
	order.OrderNumber = r.s.orderSeq
	r.s.orders[order.ID] = copyOrder(*order)
	return nil
}

func (r orderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, model.NotFound("order %s", id)
	}
	o = copyOrder(o)
	return &o, nil
}

func (r orderRepo) GetByCartRef(ctx context.Context, cartID string) (*model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(OpOrdersGetByCartRef); err != nil {
		return nil, model.Infra("get order by cart", err)
	}
	for _, o := range r.s.orders {
		if o.CartRefID == cartID {
			o = copyOrder(o)
			return &o, nil
		}
	}
	return nil, nil
}

func (r orderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[order.ID]
	if !ok {
		return model.NotFound("order %s", order.ID)
	}
	o.Status = order.Status
	o.UpdatedAt = order.UpdatedAt
	r.s.orders[order.ID] = o
	return nil
}

func (r orderRepo) GetPaged(ctx context.Context, p paging.Params, terms []sorting.Term) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	items := make([]model.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		items = append(items, copyOrder(o))
	}
	r.s.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		c := sorting.Compare(items[i], items[j], terms, compareOrder)
		if c != 0 {
			return c < 0
		}
		return items[i].OrderNumber < items[j].OrderNumber
	})
	start, end := paging.Window(len(items), p)
	return items[start:end], int64(len(items)), nil
}

func compareOrder(field sorting.Field, a, b model.Order) int {
	switch field {
	case repository.OrderSortNumber:
		switch {
		case a.OrderNumber < b.OrderNumber:
			return -1
		case a.OrderNumber > b.OrderNumber:
			return 1
		}
	case repository.OrderSortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case repository.OrderSortTotal:
		return a.TotalAmount.Cmp(b.TotalAmount)
	case repository.OrderSortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	}
	return 0
}

func (r orderRepo) ExistsByProductNumber(ctx context.Context, productNumber int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		for _, item := range o.OrderItems {
			if item.ProductRefNumber == productNumber {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r orderRepo) ExistsByBranch(ctx context.Context, branchID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.BranchRefID == branchID {
			return true, nil
		}
	}
	return false, nil
}

func (r orderRepo) ExistsByCustomer(ctx context.Context, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.CustomerRefID == userID {
			return true, nil
		}
	}
	return false, nil
}

type finalizationRepo struct{ s *Store }

func (r finalizationRepo) MarkPending(ctx context.Context, cartID, orderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(OpMarkPending); err != nil {
		return model.Infra("mark pending", err)
	}
	now := time.Now().UTC()
	f, ok := r.s.finalizations[cartID]
	if !ok {
		f = model.CartFinalization{CartID: cartID, CreatedAt: now}
	}
	f.OrderID = orderID
	f.Status = model.FinalizationPending
	f.UpdatedAt = now
	r.s.finalizations[cartID] = f
	return nil
}

func (r finalizationRepo) setStatus(cartID string, status model.FinalizationStatus) error {
	f, ok := r.s.finalizations[cartID]
	if !ok {
		return model.NotFound("cart finalization %s", cartID)
	}
	f.Status = status
	f.UpdatedAt = time.Now().UTC()
	r.s.finalizations[cartID] = f
	return nil
}

func (r finalizationRepo) MarkDone(ctx context.Context, cartID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.hit(OpMarkDone); err != nil {
		return model.Infra("mark done", err)
	}
	return r.setStatus(cartID, model.FinalizationDone)
}

func (r finalizationRepo) MarkOrphaned(ctx context.Context, cartID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.setStatus(cartID, model.FinalizationOrphaned)
}

func (r finalizationRepo) IncrementAttempts(ctx context.Context, cartID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.finalizations[cartID]
	if !ok {
		return nil
	}
	f.Attempts++
	r.s.finalizations[cartID] = f
	return nil
}

func (r finalizationRepo) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]model.CartFinalization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CartFinalization
	for _, f := range r.s.finalizations {
		if f.Status == model.FinalizationPending && f.CreatedAt.Before(olderThan) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ repository.IUnitOfWork = (*Store)(nil)
