package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"shopfront/internal/client"
	"shopfront/internal/models"
)

// ErrEmptyCart is returned by Checkout when there is nothing to buy.
var ErrEmptyCart = errors.New("cart is empty")

// Checkouter submits orders to the server.
type Checkouter interface {
	Checkout(ctx context.Context, order *models.Order) (*client.Receipt, error)
}

// Receipt is the outcome of a checkout. Simulated is set when the server
// could not be reached or refused the order and the confirmation was
// produced locally.
type Receipt struct {
	TransactionID string
	Total         decimal.Decimal
	Currency      string
	Simulated     bool
	Reason        string
}

// Session owns one shopper's cart: it is loaded from the store on Open,
// saved after every change and cleared by Checkout.
type Session struct {
	mu    sync.Mutex
	cart  *Cart
	store Store
	api   Checkouter
	now   func() time.Time
}

// Open loads the saved cart and returns a session around it.
func Open(store Store, api Checkouter) (*Session, error) {
	cart, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{cart: cart, store: store, api: api, now: time.Now}, nil
}

// Cart returns a copy of the current cart.
func (s *Session) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Cart{Lines: append([]Line(nil), s.cart.Lines...)}
}

// Add adds qty units of a product and saves the cart.
func (s *Session) Add(productID int64, name string, price decimal.Decimal, qty int) error {
	return s.mutate(func(c *Cart) { c.Add(productID, name, price, qty) })
}

// SetQty changes a line quantity and saves the cart. Zero or less removes
// the line.
func (s *Session) SetQty(productID int64, qty int) error {
	return s.mutate(func(c *Cart) { c.SetQty(productID, qty) })
}

// Remove drops a line and saves the cart.
func (s *Session) Remove(productID int64) error {
	return s.mutate(func(c *Cart) { c.Remove(productID) })
}

// Checkout submits the cart. An empty cart fails with ErrEmptyCart before
// any request is made. Otherwise the cart is always cleared: a server
// confirmation yields a real receipt, any failure yields a simulated one.
func (s *Session) Checkout(ctx context.Context) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Empty() {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		Items:     s.cart.OrderLines(),
		Total:     s.cart.Total(),
		Currency:  models.DefaultCurrency,
		Timestamp: s.now().UTC(),
	}

	var receipt *Receipt
	res, err := s.api.Checkout(ctx, order)
	if err != nil {
		slog.Warn("checkout failed, confirming locally", "error", err)
		receipt = &Receipt{
			TransactionID: fmt.Sprintf("SIM-%d", order.Timestamp.UnixNano()),
			Total:         order.Total,
			Currency:      order.Currency,
			Simulated:     true,
			Reason:        err.Error(),
		}
	} else {
		receipt = &Receipt{TransactionID: res.TransactionID, Total: res.Total, Currency: res.Currency}
	}

	s.cart.Clear()
	if err := s.store.Save(s.cart); err != nil {
		return receipt, fmt.Errorf("checkout succeeded but cart could not be saved: %w", err)
	}
	return receipt, nil
}

func (s *Session) mutate(fn func(*Cart)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cart)
	return s.store.Save(s.cart)
}
