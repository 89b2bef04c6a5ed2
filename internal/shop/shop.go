// Package shop composes one shopper's stores and runs the checkout and
// payment flow across them.
package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/address"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/catalog"
	"github.com/vasiliy-maslov/storefront/internal/checkout"
	"github.com/vasiliy-maslov/storefront/internal/metrics"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/payment"
	"github.com/vasiliy-maslov/storefront/internal/profile"
	"github.com/vasiliy-maslov/storefront/internal/storage"
	"github.com/vasiliy-maslov/storefront/internal/validation"
	"github.com/vasiliy-maslov/storefront/internal/wishlist"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutIncomplete = errors.New("checkout is incomplete")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrAlreadyPaid        = errors.New("order is already paid")
	ErrPaymentInProgress  = errors.New("a payment for this order is already in progress")
	ErrPaymentCancelled   = errors.New("payment cancelled")
)

// Deps are shared by every shopper's shop.
type Deps struct {
	Catalog       *catalog.Catalog
	Validator     *validation.Validator
	Processor     payment.Processor
	Metrics       *metrics.Metrics
	TaxRate       *decimal.Decimal // nil means cart.DefaultTaxRate
	EWalletWindow time.Duration
	Now           func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Processor == nil {
		d.Processor = payment.NewSimulator()
	}
	if d.TaxRate == nil {
		rate := cart.DefaultTaxRate
		d.TaxRate = &rate
	}
	if d.EWalletWindow == 0 {
		d.EWalletWindow = payment.DefaultEWalletWindow
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Shop is one shopper's storefront state.
type Shop struct {
	ID       string
	Cart     *cart.Store
	Address  *address.Store
	Wishlist *wishlist.Store
	Profile  *profile.Store
	Checkout *checkout.Session
	Orders   *order.Store

	deps Deps

	mu     sync.Mutex
	paying map[uuid.UUID]bool
}

// Open loads every persisted store of shopperID from st.
func Open(ctx context.Context, st storage.Storage, shopperID string, deps Deps) (*Shop, error) {
	if deps.Catalog == nil {
		return nil, errors.New("shop: catalog is required")
	}
	deps = deps.withDefaults()

	s := &Shop{
		ID:       shopperID,
		Checkout: checkout.NewSession(deps.Validator),
		deps:     deps,
		paying:   make(map[uuid.UUID]bool),
	}

	var err error
	if s.Cart, err = cart.NewStore(ctx, st, storage.Key(shopperID, "cart"), cart.WithTaxRate(*deps.TaxRate)); err != nil {
		return nil, fmt.Errorf("shop: %w", err)
	}
	if s.Address, err = address.NewStore(ctx, st, storage.Key(shopperID, "addresses"), deps.Validator); err != nil {
		return nil, fmt.Errorf("shop: %w", err)
	}
	if s.Wishlist, err = wishlist.NewStore(ctx, st, storage.Key(shopperID, "wishlist")); err != nil {
		return nil, fmt.Errorf("shop: %w", err)
	}
	if s.Profile, err = profile.NewStore(ctx, st, storage.Key(shopperID, "profile"), deps.Validator); err != nil {
		return nil, fmt.Errorf("shop: %w", err)
	}
	s.Orders, err = order.NewStore(ctx, st,
		storage.Key(shopperID, "orders"),
		storage.Key(shopperID, "current-order"),
		order.WithClock(deps.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("shop: %w", err)
	}

	return s, nil
}

// AddToCart adds quantity units of a catalog variant to the cart.
func (s *Shop) AddToCart(ctx context.Context, productID, variantID string, quantity int) (cart.Cart, error) {
	if quantity <= 0 {
		return cart.Cart{}, ErrInvalidQuantity
	}

	p, v, err := s.deps.Catalog.FindVariant(productID, variantID)
	if err != nil {
		return cart.Cart{}, err
	}

	return s.Cart.Add(ctx, cart.Item{
		ProductID: p.Slug,
		VariantID: v.Slug,
		Name:      p.Name + " (" + v.Name + ")",
		Image:     p.Image,
		Price:     v.Price,
		Quantity:  quantity,
		Finish:    v.Finish,
		Thickness: v.Thickness,
		Size:      v.Size,
	})
}

func (s *Shop) UpdateCartQuantity(ctx context.Context, itemID string, quantity int) (cart.Cart, error) {
	if quantity <= 0 {
		return cart.Cart{}, ErrInvalidQuantity
	}
	return s.Cart.UpdateQuantity(ctx, itemID, quantity)
}

// CanCheckout reports whether the cart has anything to check out.
func (s *Shop) CanCheckout() bool {
	return s.Cart.Count() > 0
}

// PlaceOrder freezes the cart and the checkout snapshots into a pending order.
func (s *Shop) PlaceOrder(ctx context.Context) (order.Order, error) {
	snap := s.Cart.Snapshot()
	if len(snap.Items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	st := s.Checkout.State()
	if !s.Checkout.Ready() || st.Shipping == nil || st.Billing == nil {
		return order.Order{}, ErrCheckoutIncomplete
	}

	o, err := s.Orders.Create(ctx, order.Draft{
		Items:         snap.Items,
		Totals:        snap.Totals,
		Shipping:      *st.Shipping,
		Billing:       *st.Billing,
		PaymentStatus: order.PaymentPending,
	})
	if err != nil {
		return order.Order{}, err
	}

	s.deps.Metrics.OrderCreated()
	return o, nil
}

// Pay runs one payment attempt for the order. A resolved attempt returns the
// updated order and the processor result with a nil error, failed or not.
// If ctx ends before the processor resolves, the order stays pending and
// ErrPaymentCancelled is returned.
func (s *Shop) Pay(ctx context.Context, orderID uuid.UUID, in payment.Input) (order.Order, payment.Result, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return order.Order{}, payment.Result{}, err
	}
	if o.PaymentStatus == order.PaymentPaid || o.PaymentStatus == order.PaymentRefunded {
		return order.Order{}, payment.Result{}, ErrAlreadyPaid
	}

	now := s.deps.Now()
	if err := in.Validate(s.deps.Validator, now); err != nil {
		return order.Order{}, payment.Result{}, err
	}

	if !s.begin(orderID) {
		return order.Order{}, payment.Result{}, ErrPaymentInProgress
	}
	defer s.end(orderID)

	if o.PaymentStatus == order.PaymentFailed {
		if _, err := s.Orders.UpdatePaymentStatus(ctx, orderID, order.PaymentPending, nil); err != nil {
			return order.Order{}, payment.Result{}, err
		}
	}

	method := in.Method()
	ref := payment.NewReference(method, now)
	o, err = s.Orders.AttachPayment(ctx, orderID, in.Descriptor(o.Totals.Total), ref)
	if err != nil {
		return order.Order{}, payment.Result{}, err
	}

	var window time.Duration
	if method == payment.MethodEWallet {
		window = s.deps.EWalletWindow
	}

	req := payment.Request{
		OrderID:   orderID,
		Amount:    o.Totals.Total,
		Method:    method,
		Reference: ref,
	}
	res, err := payment.ProcessWithin(ctx, s.deps.Processor, req, window)

	// Writes after the processor returns outlive the caller's context.
	wctx := context.WithoutCancel(ctx)

	if err != nil {
		if ctx.Err() != nil {
			log.Info().
				Stringer("order_id", orderID).
				Str("reference", ref).
				Msg("shop: payment cancelled, order left pending")
			return order.Order{}, payment.Result{}, fmt.Errorf("%w: %w", ErrPaymentCancelled, ctx.Err())
		}

		log.Error().Err(err).Stringer("order_id", orderID).Msg("shop: payment processor error")
		if _, uerr := s.Orders.UpdatePaymentStatus(wctx, orderID, order.PaymentFailed, nil); uerr != nil {
			return order.Order{}, payment.Result{}, uerr
		}
		s.deps.Metrics.PaymentResolved(method.String(), "error")
		return order.Order{}, payment.Result{}, fmt.Errorf("shop: payment processor: %w", err)
	}

	s.deps.Metrics.PaymentResolved(method.String(), string(res.Outcome))

	if !res.Succeeded() {
		o, err = s.Orders.UpdatePaymentStatus(wctx, orderID, order.PaymentFailed, nil)
		if err != nil {
			return order.Order{}, payment.Result{}, err
		}
		log.Info().
			Stringer("order_id", orderID).
			Str("outcome", string(res.Outcome)).
			Msg("shop: payment failed")
		return o, res, nil
	}

	paidAt := res.ProcessedAt
	o, err = s.Orders.UpdatePaymentStatus(wctx, orderID, order.PaymentPaid, &paidAt)
	if err != nil {
		return order.Order{}, payment.Result{}, err
	}

	// The order is paid from here on; cleanup failures are logged, not returned.
	s.Checkout.Reset()
	if err := s.Cart.Clear(wctx); err != nil {
		log.Error().
			Err(err).
			Stringer("order_id", orderID).
			Msg("shop: failed to clear cart after payment")
	}

	log.Info().
		Stringer("order_id", orderID).
		Str("order_number", o.Number).
		Str("reference", ref).
		Msg("shop: payment succeeded")

	return o, res, nil
}

// Refund marks a paid order as refunded.
func (s *Shop) Refund(ctx context.Context, orderID uuid.UUID) (order.Order, error) {
	before, err := s.Orders.Get(orderID)
	if err != nil {
		return order.Order{}, err
	}

	o, err := s.Orders.UpdatePaymentStatus(ctx, orderID, order.PaymentRefunded, nil)
	if err != nil {
		return order.Order{}, err
	}
	if before.PaymentStatus != order.PaymentRefunded {
		s.deps.Metrics.Refunded()
	}
	return o, nil
}

// AddToWishlist saves a catalog variant. It reports false when it was already saved.
func (s *Shop) AddToWishlist(ctx context.Context, productID, variantID string) (bool, error) {
	p, v, err := s.deps.Catalog.FindVariant(productID, variantID)
	if err != nil {
		return false, err
	}

	return s.Wishlist.Add(ctx, wishlist.Item{
		ProductID: p.Slug,
		VariantID: v.Slug,
		Name:      p.Name + " (" + v.Name + ")",
		Image:     p.Image,
		Price:     v.Price,
	})
}

// MoveWishlistItemToCart adds the saved variant to the cart at its current
// catalog price and drops it from the wishlist.
func (s *Shop) MoveWishlistItemToCart(ctx context.Context, itemID string, quantity int) (cart.Cart, error) {
	item, ok := s.Wishlist.Get(itemID)
	if !ok {
		return cart.Cart{}, wishlist.ErrItemNotFound
	}

	c, err := s.AddToCart(ctx, item.ProductID, item.VariantID, quantity)
	if err != nil {
		return cart.Cart{}, err
	}
	if err := s.Wishlist.Remove(ctx, itemID); err != nil {
		return cart.Cart{}, err
	}
	return c, nil
}

func (s *Shop) begin(orderID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paying[orderID] {
		return false
	}
	s.paying[orderID] = true
	return true
}

func (s *Shop) end(orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.paying, orderID)
}
