package storefront_test

import (
	"io"
	"strings"
	"sync"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"
	"storefront/internal/storefront"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sellerEmail = "seller@example.com"

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	m.Run()
}

type env struct {
	products *repositories.MockProductRepository
	orders   *repositories.MockOrderRepository
	carts    *repositories.MockCartRepository
	fs       afero.Fs
	svc      storefront.Services
}

func newEnv(t *testing.T, requireLogin bool) *env {
	t.Helper()
	e := &env{
		products: repositories.NewMockProductRepository(),
		orders:   repositories.NewMockOrderRepository(),
		carts:    repositories.NewMockCartRepository(),
		fs:       afero.NewMemMapFs(),
	}
	store := storage.NewFSStore(e.fs, "/storage")
	products := services.NewProductService(e.products)
	orders := services.NewOrderService(e.orders, nil, nil)
	e.svc = storefront.Services{
		Products: products,
		Orders:   orders,
		Checkout: services.NewCheckoutService(orders, products, store, requireLogin, nil),
		Admin:    services.NewAdminService(sellerEmail, orders, products, store),
		Carts:    storefront.NewCartFactory(e.carts, nil),
	}
	return e
}

func (e *env) seed(t *testing.T, id, name, price string, stock int) {
	t.Helper()
	p := models.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, e.products.Create(&p))
}

func (e *env) started(t *testing.T, device string) *storefront.Controller {
	t.Helper()
	c := storefront.NewController(device, e.svc)
	require.NoError(t, c.Start())
	return c
}

type recorder struct {
	mu     sync.Mutex
	events []storefront.Event
}

func (r *recorder) record(e storefront.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []storefront.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]storefront.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind == storefront.Notice {
			out = append(out, e.Message)
		}
	}
	return out
}

func receipt() *storage.Upload {
	return &storage.Upload{Filename: "receipt.jpg", Body: strings.NewReader("jpg")}
}

func TestController_StartRestoresCart(t *testing.T) {
	e := newEnv(t, false)
	e.seed(t, "A", "ProductA", "10", 5)

	first := e.started(t, "dev-1")
	require.NoError(t, first.AddToCart("A", 2))

	again := e.started(t, "dev-1")
	assert.Equal(t, 2, again.Cart().Count)

	other := e.started(t, "dev-2")
	assert.Equal(t, 0, other.Cart().Count)
}

func TestController_AddToCart(t *testing.T) {
	e := newEnv(t, false)
	e.seed(t, "A", "ProductA", "10", 2)
	e.seed(t, "Z", "Sold Out", "3", 0)
	c := e.started(t, "dev")
	rec := &recorder{}
	c.Subscribe(rec.record)

	assert.ErrorIs(t, c.AddToCart("A", 0), services.ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddToCart("A", 3), services.ErrOutOfStock)
	assert.ErrorIs(t, c.AddToCart("Z", 1), services.ErrOutOfStock)
	assert.ErrorIs(t, c.AddToCart("missing", 1), repositories.ErrProductNotFound)
	assert.Empty(t, rec.kinds())

	require.NoError(t, c.AddToCart("A", 2))
	view := c.Cart()
	assert.Equal(t, 2, view.Count)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, "20.00", models.FormatPrice(view.Total))
	assert.Equal(t, []string{"2x ProductA added to bag!"}, rec.notices())
	assert.Contains(t, rec.kinds(), storefront.CartChanged)
}

func TestController_ClearCartNeedsConfirmation(t *testing.T) {
	e := newEnv(t, false)
	e.seed(t, "A", "ProductA", "10", 5)
	c := e.started(t, "dev")
	require.NoError(t, c.AddToCart("A", 1))

	assert.ErrorIs(t, c.ClearCart(false), services.ErrConfirmationRequired)
	assert.Equal(t, 1, c.Cart().Count)

	require.NoError(t, c.ClearCart(true))
	assert.Equal(t, 0, c.Cart().Count)
	stored, err := e.carts.Load(c.CartKey())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestController_SessionChangesNotifyOnce(t *testing.T) {
	e := newEnv(t, false)
	c := e.started(t, "dev")
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.record)

	ann := &models.Session{UserID: "u1", Email: "ann@example.com"}
	c.SetSession(ann)
	c.SetSession(&models.Session{UserID: "u1", Email: "ann@example.com"})
	assert.Equal(t, []storefront.EventKind{storefront.SessionChanged}, rec.kinds())
	assert.Equal(t, "ann@example.com", c.Contact().Email)
	assert.False(t, c.IsAdmin())

	c.SetSession(&models.Session{UserID: "s1", Email: sellerEmail})
	assert.True(t, c.IsAdmin())
	assert.Equal(t, sellerEmail, c.Contact().Email)

	c.SetSession(nil)
	assert.Nil(t, c.Session())
	assert.Empty(t, c.Contact().Email)
	assert.Len(t, rec.kinds(), 3)

	unsubscribe()
	unsubscribe()
	c.SetSession(ann)
	assert.Len(t, rec.kinds(), 3)
}

func TestController_TypedEmailSurvivesSignIn(t *testing.T) {
	e := newEnv(t, false)
	c := e.started(t, "dev")
	c.SetContact(models.ContactDetails{Email: "typed@example.com", Address: "1 Main St"})
	c.SetSession(&models.Session{UserID: "u1", Email: "ann@example.com"})
	assert.Equal(t, "typed@example.com", c.Contact().Email)
}

func TestController_CheckoutSuccess(t *testing.T) {
	e := newEnv(t, true)
	e.seed(t, "A", "ProductA", "10", 1)
	e.seed(t, "B", "ProductB", "5", 3)
	c := e.started(t, "dev")
	c.SetSession(&models.Session{UserID: "u1", Email: "ann@example.com"})
	require.NoError(t, c.AddToCart("A", 1))
	require.NoError(t, c.AddToCart("B", 1))
	rec := &recorder{}
	c.Subscribe(rec.record)

	result, err := c.Checkout(models.ContactDetails{Phone: "555", Address: "1 Main St"}, receipt())
	require.NoError(t, err)
	assert.Equal(t, "15.00", models.FormatPrice(result.Order.Total))
	assert.Equal(t, "ann@example.com", result.Order.CustomerEmail)

	state, stateErr := c.CheckoutState()
	assert.Equal(t, storefront.CheckoutSuccess, state)
	assert.NoError(t, stateErr)
	assert.Equal(t, 0, c.Cart().Count)
	assert.Equal(t, models.ContactDetails{Email: "ann@example.com"}, c.Contact())
	assert.Contains(t, rec.notices(), "Order sent!")

	catalog := c.Catalog()
	require.Len(t, catalog, 2)
	byID := map[string]storefront.CatalogItem{}
	for _, item := range catalog {
		byID[item.ID] = item
	}
	assert.False(t, byID["A"].Available)
	assert.Equal(t, 1, byID["A"].Sold)
	assert.Equal(t, 2, byID["B"].Stock)

	receipts, err := afero.ReadDir(e.fs, "/receipts")
	require.NoError(t, err)
	assert.Len(t, receipts, 1)
}

func TestController_CheckoutValidationKeepsState(t *testing.T) {
	e := newEnv(t, true)
	e.seed(t, "A", "ProductA", "10", 1)
	c := e.started(t, "dev")
	require.NoError(t, c.AddToCart("A", 1))

	_, err := c.Checkout(models.ContactDetails{Email: "a@example.com", Address: "x"}, nil)
	assert.ErrorIs(t, err, services.ErrReceiptRequired)
	_, err = c.Checkout(models.ContactDetails{Email: "a@example.com", Address: "x"}, receipt())
	assert.ErrorIs(t, err, services.ErrLoginRequired)

	state, _ := c.CheckoutState()
	assert.Equal(t, storefront.CheckoutIdle, state)
	assert.Equal(t, 1, c.Cart().Count)
	orders, _ := e.orders.GetAll()
	assert.Empty(t, orders)
}

func TestController_CheckoutFailureKeepsCart(t *testing.T) {
	e := newEnv(t, false)
	e.seed(t, "A", "ProductA", "10", 1)
	// A read-only bucket makes the receipt upload fail.
	products := services.NewProductService(e.products)
	orders := services.NewOrderService(e.orders, nil, nil)
	store := storage.NewFSStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/storage")
	e.svc.Checkout = services.NewCheckoutService(orders, products, store, false, nil)
	c := e.started(t, "dev")
	require.NoError(t, c.AddToCart("A", 1))

	_, err := c.Checkout(models.ContactDetails{Email: "a@example.com", Address: "x"}, receipt())
	require.Error(t, err)
	state, stateErr := c.CheckoutState()
	assert.Equal(t, storefront.CheckoutFailed, state)
	assert.Equal(t, err, stateErr)
	assert.Equal(t, 1, c.Cart().Count)

	e.svc.Checkout = services.NewCheckoutService(orders, products, storage.NewFSStore(afero.NewMemMapFs(), "/storage"), false, nil)
	retry := storefront.NewController("dev", e.svc)
	require.NoError(t, retry.Start())
	_, err = retry.Checkout(models.ContactDetails{Email: "a@example.com", Address: "x"}, receipt())
	require.NoError(t, err)
}

func TestController_Catalog(t *testing.T) {
	e := newEnv(t, false)
	e.seed(t, "A", "ProductA", "10", 1)
	c := e.started(t, "dev")
	require.Len(t, c.Catalog(), 1)

	e.seed(t, "B", "ProductB", "5", 0)
	assert.Len(t, c.Catalog(), 1)
	require.NoError(t, c.RefreshCatalog())
	catalog := c.Catalog()
	require.Len(t, catalog, 2)
	assert.Equal(t, "B", catalog[0].ID, "newest first")
	assert.False(t, catalog[0].Available)

	require.NoError(t, e.orders.Create(&models.Order{
		Items:  models.ProductSnapshots{catalog[1].Snapshot(), catalog[1].Snapshot()},
		Status: models.OrderStatusDelivered,
	}))
	require.NoError(t, c.RecomputeSoldCounts())
	assert.Equal(t, 2, c.Catalog()[1].Sold)
}

// gatedStore blocks every upload until release is closed.
type gatedStore struct {
	storage.ObjectStore
	started chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		ObjectStore: storage.NewFSStore(afero.NewMemMapFs(), "/storage"),
		started:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (s *gatedStore) Upload(bucket, key string, body io.Reader) (string, error) {
	s.started <- struct{}{}
	<-s.release
	return s.ObjectStore.Upload(bucket, key, body)
}

// gateCheckout routes e's receipt uploads through a gatedStore.
func (e *env) gateCheckout() *gatedStore {
	store := newGatedStore()
	e.svc.Checkout = services.NewCheckoutService(e.svc.Orders, e.svc.Products, store, false, nil)
	return store
}

// checkoutInFlight starts a checkout of product A on c and returns once the receipt upload
// is blocked on store. release unblocks it; wait returns the checkout's outcome.
func checkoutInFlight(t *testing.T, c *storefront.Controller, store *gatedStore) (release func(), wait func() error) {
	t.Helper()
	require.NoError(t, c.AddToCart("A", 1))

	done := make(chan error, 1)
	go func() {
		_, err := c.Checkout(models.ContactDetails{Email: "a@example.com", Address: "1 Main St"}, receipt())
		done <- err
	}()
	<-store.started
	return func() { close(store.release) }, func() error { return <-done }
}

func TestController_SecondCheckoutWhileUploadingIsRejected(t *testing.T) {
	e := newEnv(t, false)
	e.seed(t, "A", "ProductA", "10", 5)
	store := e.gateCheckout()
	c := e.started(t, "dev")
	release, wait := checkoutInFlight(t, c, store)

	state, _ := c.CheckoutState()
	assert.Equal(t, storefront.CheckoutUploading, state)
	assert.True(t, c.Busy())

	_, err := c.Checkout(models.ContactDetails{Email: "a@example.com", Address: "1 Main St"}, receipt())
	assert.ErrorIs(t, err, storefront.ErrCheckoutInProgress)

	release()
	require.NoError(t, wait())
	assert.False(t, c.Busy())
	orders, _ := e.orders.GetAll()
	assert.Len(t, orders, 1)
}

func TestController_ItemsAddedDuringCheckoutStayInBag(t *testing.T) {
	e := newEnv(t, false)
	e.seed(t, "A", "ProductA", "10", 5)
	e.seed(t, "B", "ProductB", "5", 5)
	store := e.gateCheckout()
	c := e.started(t, "dev")
	release, wait := checkoutInFlight(t, c, store)

	require.NoError(t, c.AddToCart("B", 2))
	release()
	require.NoError(t, wait())

	view := c.Cart()
	assert.Equal(t, 2, view.Count)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "B", view.Lines[0].Product.ID)

	orders, _ := e.orders.GetAll()
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, "A", orders[0].Items[0].ID)
}
