// Package storefront holds the per-device application state that sits between the HTTP
// handlers and the services: who is signed in, what is in the bag, the catalog as last
// loaded, and where the current checkout stands.
package storefront

import (
	"errors"
	"fmt"
	"sync"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrCheckoutInProgress rejects a second submission while a receipt is still uploading.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// Services are the collaborators shared by every controller.
type Services struct {
	Products *services.ProductService
	Orders   *services.OrderService
	Checkout *services.CheckoutService
	Admin    *services.AdminService
	Carts    *CartFactory
}

// CatalogItem is a product as the catalog shows it.
type CatalogItem struct {
	models.Product
	Available bool `json:"available"`
	Sold      int  `json:"sold"`
}

// CartView is the grouped bag.
type CartView struct {
	Lines []models.CartLine `json:"lines"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

// Controller is the state of one device's storefront.
type Controller struct {
	mu       sync.Mutex
	deviceID string
	svc      Services
	cart     *services.CartManager

	session          *models.Session
	products         []models.Product
	sold             models.SoldCounts
	contact          models.ContactDetails
	emailFromSession bool
	checkout         CheckoutState
	lastCheckoutErr  error

	listenersMu sync.Mutex
	listeners   map[int]func(Event)
	nextID      int

	log zerolog.Logger
}

// NewController creates a controller for deviceID. Call Start before use.
func NewController(deviceID string, svc Services) *Controller {
	return &Controller{
		deviceID:  deviceID,
		svc:       svc,
		cart:      svc.Carts.For(deviceID),
		sold:      models.SoldCounts{},
		checkout:  CheckoutIdle,
		listeners: make(map[int]func(Event)),
		log:       logging.For("storefront").With().Str("device_id", deviceID).Logger(),
	}
}

// DeviceID returns the device the controller belongs to.
func (c *Controller) DeviceID() string {
	return c.deviceID
}

// Subscribe registers fn for every future event and returns a function that removes it.
// Listeners are called outside the controller lock.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			delete(c.listeners, id)
			c.listenersMu.Unlock()
		})
	}
}

func (c *Controller) emit(events ...Event) {
	c.listenersMu.Lock()
	fns := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.Unlock()

	for _, e := range events {
		for _, fn := range fns {
			fn(e)
		}
	}
}

// Start restores the persisted bag and loads the catalog and sold counts.
func (c *Controller) Start() error {
	if err := c.cart.Load(); err != nil {
		return fmt.Errorf("failed to restore cart for device %s: %w", c.deviceID, err)
	}
	c.emit(Event{Kind: CartChanged})
	return errors.Join(c.RefreshCatalog(), c.RecomputeSoldCounts())
}

// SetSession records the signed-in user, or nil after sign-out.
// Listeners hear about it only when the identity actually changes.
func (c *Controller) SetSession(session *models.Session) {
	c.mu.Lock()
	if models.SameIdentity(c.session, session) {
		c.mu.Unlock()
		return
	}
	c.session = session
	switch {
	case session != nil && (c.contact.Email == "" || c.emailFromSession):
		c.contact.Email = session.Email
		c.emailFromSession = true
	case session == nil && c.emailFromSession:
		c.contact.Email = ""
		c.emailFromSession = false
	}
	c.mu.Unlock()

	c.emit(Event{Kind: SessionChanged})
}

// Session returns the signed-in user or nil.
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// IsAdmin reports whether the signed-in user is the seller.
func (c *Controller) IsAdmin() bool {
	return c.svc.Admin.IsSeller(c.Session())
}

// Contact returns the contact form as it currently stands.
func (c *Controller) Contact() models.ContactDetails {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contact
}

// SetContact replaces the contact form. A blank email falls back to the session's.
func (c *Controller) SetContact(contact models.ContactDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setContactLocked(contact)
}

func (c *Controller) setContactLocked(contact models.ContactDetails) {
	c.emailFromSession = false
	if contact.Email == "" && c.session != nil {
		contact.Email = c.session.Email
		c.emailFromSession = true
	}
	c.contact = contact
}

// AddToCart puts quantity units of the product in the bag.
// The quantity must be positive and no larger than the product's stock.
func (c *Controller) AddToCart(productID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: %d", services.ErrInvalidQuantity, quantity)
	}
	product, err := c.svc.Products.GetProductByID(productID)
	if err != nil {
		return err
	}
	if !product.Available() {
		return fmt.Errorf("%w: %s is sold out", services.ErrOutOfStock, product.Name)
	}
	if quantity > product.Stock {
		return fmt.Errorf("%w: only %d of %s left", services.ErrOutOfStock, product.Stock, product.Name)
	}
	if err := c.cart.Add(*product, quantity); err != nil {
		return err
	}
	c.emit(Event{Kind: CartChanged}, Event{Kind: Notice, Message: fmt.Sprintf("%dx %s added to bag!", quantity, product.Name)})
	return nil
}

// ClearCart empties the bag once the user confirmed it.
func (c *Controller) ClearCart(confirmed bool) error {
	if !confirmed {
		return services.ErrConfirmationRequired
	}
	if err := c.cart.Clear(); err != nil {
		return err
	}
	c.emit(Event{Kind: CartChanged})
	return nil
}

// Cart returns the grouped bag with its total.
func (c *Controller) Cart() CartView {
	items := c.cart.Items()
	return CartView{Lines: items.Lines(), Count: len(items), Total: items.Total()}
}

// CheckoutState returns the state of the latest checkout attempt and its error, if it failed.
func (c *Controller) CheckoutState() (CheckoutState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkout, c.lastCheckoutErr
}

// CheckoutRequiresLogin reports whether checkout needs a signed-in user.
func (c *Controller) CheckoutRequiresLogin() bool {
	return c.svc.Checkout.RequiresLogin()
}

// Busy reports whether a checkout is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkout == CheckoutUploading
}

func (c *Controller) setCheckoutState(state CheckoutState, err error) {
	c.mu.Lock()
	c.checkout = state
	c.lastCheckoutErr = err
	c.mu.Unlock()
	c.emit(Event{Kind: CheckoutStateChanged})
}

// Checkout submits the bag with the given contact details and receipt.
// On failure the bag is kept and whatever already happened remotely stays done.
func (c *Controller) Checkout(contact models.ContactDetails, receipt *storage.Upload) (*services.CheckoutResult, error) {
	c.mu.Lock()
	if c.checkout == CheckoutUploading {
		c.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	c.setContactLocked(contact)
	req := services.CheckoutRequest{
		Session: c.session,
		Contact: c.contact,
		Receipt: receipt,
		Cart:    c.cart.Items(),
	}
	if err := c.svc.Checkout.Validate(&req); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.checkout = CheckoutUploading
	c.lastCheckoutErr = nil
	c.mu.Unlock()
	c.emit(Event{Kind: CheckoutStateChanged})

	result, err := c.svc.Checkout.Checkout(req)
	if err != nil {
		c.setCheckoutState(CheckoutFailed, err)
		return nil, err
	}

	// items added while the receipt was uploading stay in the bag
	if err := c.cart.Remove(req.Cart); err != nil {
		c.log.Error().Err(err).Str("order_id", result.Order.ID).Msg("order placed but cart could not be cleared")
	}
	c.mu.Lock()
	c.contact.Phone = ""
	c.contact.Address = ""
	if !c.emailFromSession {
		c.contact.Email = ""
	}
	c.mu.Unlock()

	c.setCheckoutState(CheckoutSuccess, nil)
	c.emit(Event{Kind: CartChanged}, Event{Kind: Notice, Message: "Order sent!"})
	if err := errors.Join(c.RefreshCatalog(), c.RecomputeSoldCounts()); err != nil {
		c.log.Warn().Err(err).Msg("failed to refresh after checkout")
	}
	return result, nil
}

// RefreshCatalog reloads the product list, newest first.
func (c *Controller) RefreshCatalog() error {
	products, err := c.svc.Products.GetAllProducts()
	if err != nil {
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	c.emit(Event{Kind: CatalogRefreshed})
	return nil
}

// RecomputeSoldCounts rescans every order.
func (c *Controller) RecomputeSoldCounts() error {
	sold, err := c.svc.Orders.SoldCounts()
	if err != nil {
		return fmt.Errorf("failed to compute sold counts: %w", err)
	}
	c.mu.Lock()
	c.sold = sold
	c.mu.Unlock()
	c.emit(Event{Kind: SoldCountsChanged})
	return nil
}

// Catalog returns the last loaded products with availability and units sold.
func (c *Controller) Catalog() []CatalogItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]CatalogItem, 0, len(c.products))
	for _, p := range c.products {
		items = append(items, CatalogItem{Product: p, Available: p.Available(), Sold: c.sold[p.ID]})
	}
	return items
}

// CatalogItem reads one product fresh from the store and pairs it with its units sold.
func (c *Controller) CatalogItem(productID string) (CatalogItem, error) {
	p, err := c.svc.Products.GetProductByID(productID)
	if err != nil {
		return CatalogItem{}, err
	}
	c.mu.Lock()
	sold := c.sold[p.ID]
	c.mu.Unlock()
	return CatalogItem{Product: *p, Available: p.Available(), Sold: sold}, nil
}

// CartKey is the storage key of this device's bag.
func (c *Controller) CartKey() string {
	return repositories.DeviceCartKey(c.deviceID)
}
