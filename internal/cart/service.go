package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/order"
	"github.com/restopos/api/internal/pricing"
	"github.com/shopspring/decimal"
)

// ErrCartNotFound is returned by repositories for unknown carts.
var ErrCartNotFound = errors.New("cart not found")

// ErrEmptyCart is returned when checking out a cart with no lines.
var ErrEmptyCart = fmt.Errorf("%w: cart has no lines", order.ErrValidation)

// Cart is a terminal's working set of lines. OrderID is set once the cart
// has been placed with the Order Store.
type Cart struct {
	ID        string           `json:"id"`
	OrderID   uuid.NullUUID    `json:"order_id"`
	Lines     []order.CartLine `json:"lines"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Repository persists carts. The service never touches storage directly.
type Repository interface {
	Load(ctx context.Context, cartID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, cartID string) error
}

// VATProvider supplies the VAT rate as a fraction.
type VATProvider interface {
	GetRate(ctx context.Context) (decimal.Decimal, error)
}

// OrderStore is the part of the Order Store the cart needs to place orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, o order.Order) (order.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, o order.Order) (order.Order, error)
}

// Service orchestrates catalog lookups, reconciliation, pricing and
// persistence for carts.
type Service struct {
	repo    Repository
	catalog catalog.Provider
	vat     VATProvider
	orders  OrderStore
	now     func() time.Time

	// One edit per cart at a time keeps load-modify-save atomic.
	mu    sync.Mutex
	locks map[string]*cartLock
}

// NewService creates a cart Service.
func NewService(repo Repository, provider catalog.Provider, vat VATProvider, orders OrderStore) *Service {
	return &Service{
		repo:    repo,
		catalog: provider,
		vat:     vat,
		orders:  orders,
		now:     time.Now,
		locks:   make(map[string]*cartLock),
	}
}

// WithClock overrides the time source used for offer windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Get returns the cart, or an empty one if it does not exist yet.
func (s *Service) Get(ctx context.Context, cartID string) (*Cart, error) {
	return s.load(ctx, cartID)
}

// Add configures an item from the catalog and reconciles it into the cart.
// It returns the cart and the line that was written.
func (s *Service) Add(ctx context.Context, cartID string, cfg Config) (*Cart, *order.CartLine, error) {
	unlock := s.lock(cartID)
	defer unlock()

	now := s.now()
	var (
		line order.CartLine
		err  error
	)
	if cfg.Bundle {
		b, gerr := s.catalog.GetBundle(ctx, cfg.Name)
		if gerr != nil {
			return nil, nil, gerr
		}
		line, err = ConfigureBundle(b, cfg, now)
	} else {
		item, gerr := s.catalog.GetItem(ctx, cfg.Name)
		if gerr != nil {
			return nil, nil, gerr
		}
		line, err = Configure(item, cfg, now)
	}
	if err != nil {
		return nil, nil, err
	}

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	c.Lines = Reconcile(c.Lines, line)
	if err := s.save(ctx, c); err != nil {
		return nil, nil, err
	}

	written := findWritten(c.Lines, line)
	return c, written, nil
}

// Apply edits one line of the cart.
func (s *Service) Apply(ctx context.Context, cartID string, lineID uuid.UUID, a Action) (*Cart, error) {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	lines, err := Update(c.Lines, lineID, a, s.now())
	if err != nil {
		return nil, err
	}
	c.Lines = lines
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes a line from the cart.
func (s *Service) Remove(ctx context.Context, cartID string, lineID uuid.UUID) (*Cart, error) {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	lines, err := Remove(c.Lines, lineID)
	if err != nil {
		return nil, err
	}
	c.Lines = lines
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Totals reprices the cart at the current time and applies VAT. An
// unreachable VAT provider falls back to the default rate.
func (s *Service) Totals(ctx context.Context, cartID string) (*Cart, pricing.OrderTotals, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, pricing.OrderTotals{}, err
	}
	c.Lines = pricing.RepriceAll(c.Lines, s.now())
	return c, pricing.ComputeOrder(c.Lines, s.rate(ctx)), nil
}

// Refresh re-resolves every line against the catalog. Lines whose entry
// vanished keep their cached fields, are flagged stale and keep pricing.
func (s *Service) Refresh(ctx context.Context, cartID string) (*Cart, error) {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for i := range c.Lines {
		c.Lines[i] = s.refreshLine(ctx, c.Lines[i])
	}
	c.Lines = pricing.RepriceAll(c.Lines, s.now())

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Checkout places the cart with the Order Store, creating the order the
// first time and updating it afterwards.
func (s *Service) Checkout(ctx context.Context, cartID string) (*Cart, *order.Order, error) {
	unlock := s.lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	if len(c.Lines) == 0 {
		return nil, nil, ErrEmptyCart
	}
	c.Lines = pricing.RepriceAll(c.Lines, s.now())

	lines := make([]order.CartLine, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = l.Clone()
	}
	o := order.Order{CartID: c.ID, Lines: lines}
	var placed order.Order
	if c.OrderID.Valid {
		placed, err = s.orders.UpdateOrder(ctx, c.OrderID.UUID, o)
	} else {
		placed, err = s.orders.CreateOrder(ctx, o)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("place order: %w", err)
	}

	c.OrderID = uuid.NullUUID{UUID: placed.ID, Valid: true}
	adoptStatuses(c.Lines, placed.Lines)
	if err := s.save(ctx, c); err != nil {
		return nil, nil, err
	}
	return c, &placed, nil
}

// adoptStatuses copies the kitchen statuses the store holds onto the cart's
// lines, matched by line id. Lines the store did not return keep theirs.
func adoptStatuses(lines, placed []order.CartLine) {
	byID := make(map[uuid.UUID]map[string]string, len(placed))
	for _, l := range placed {
		byID[l.ID] = l.KitchenStatuses
	}
	for i := range lines {
		statuses, ok := byID[lines[i].ID]
		if !ok {
			continue
		}
		lines[i].KitchenStatuses = make(map[string]string, len(statuses))
		for k, v := range statuses {
			lines[i].KitchenStatuses[k] = v
		}
	}
}

func (s *Service) refreshLine(ctx context.Context, line order.CartLine) order.CartLine {
	if line.IsBundle() {
		b, err := s.catalog.GetBundle(ctx, line.Name)
		switch {
		case err == nil:
			line.Bundle = b
			line.Stale = false
		case errors.Is(err, catalog.ErrBundleNotFound):
			line.Stale = true
		default:
			log.Printf("ERROR: refresh bundle %q: %v", line.Name, err)
		}
		return line
	}

	item, err := s.catalog.GetItem(ctx, line.Name)
	switch {
	case err == nil:
		line.Item = item
		line.Stale = false
	case errors.Is(err, catalog.ErrItemNotFound):
		line.Stale = true
	default:
		log.Printf("ERROR: refresh item %q: %v", line.Name, err)
	}
	return line
}

func (s *Service) rate(ctx context.Context) decimal.Decimal {
	if s.vat == nil {
		return pricing.DefaultVATRate
	}
	r, err := s.vat.GetRate(ctx)
	if err != nil {
		log.Printf("WARN: vat rate unavailable, using %s: %v", pricing.DefaultVATRate, err)
		return pricing.DefaultVATRate
	}
	return r
}

func (s *Service) load(ctx context.Context, cartID string) (*Cart, error) {
	c, err := s.repo.Load(ctx, cartID)
	if errors.Is(err, ErrCartNotFound) {
		return &Cart{ID: cartID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

type cartLock struct {
	sync.Mutex
	refs int
}

// lock serializes edits to one cart. Entries live only while someone holds
// or waits for them.
func (s *Service) lock(cartID string) func() {
	s.mu.Lock()
	l, ok := s.locks[cartID]
	if !ok {
		l = &cartLock{}
		s.locks[cartID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, cartID)
		}
		s.mu.Unlock()
	}
}

// findWritten locates the line Reconcile wrote for configured: by id when it
// had one, else the last line with that name (replacements keep position,
// appends go last).
func findWritten(lines []order.CartLine, configured order.CartLine) *order.CartLine {
	if configured.ID != uuid.Nil {
		if i := indexOf(lines, configured.ID); i >= 0 {
			return &lines[i]
		}
	}
	key := sizeBucket(configured)
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Name != configured.Name || lines[i].Kind != configured.Kind {
			continue
		}
		if configured.IsBundle() || sizeBucket(lines[i]) == key {
			return &lines[i]
		}
	}
	return nil
}
