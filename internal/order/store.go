// Package order keeps the shopper's placed orders. Orders live in one map;
// the list order and the current order are ids into it.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/payment"
	"github.com/vasiliy-maslov/storefront/internal/storage"
)

var allowedPaymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {
		PaymentPaid:   true,
		PaymentFailed: true,
	},
	PaymentFailed: {
		PaymentPending: true,
	},
	PaymentPaid: {
		PaymentRefunded: true,
	},
	PaymentRefunded: {},
}

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrNotPending              = errors.New("order must be created with pending payment status")
	ErrNoItems                 = errors.New("order must contain at least one item")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrInvoiceUnavailable      = errors.New("invoice is only available for paid orders")
)

type Store struct {
	mu         sync.Mutex
	storage    storage.Storage
	ordersKey  string
	currentKey string
	now        func() time.Time

	orders    map[uuid.UUID]Order
	ids       []uuid.UUID // most recent first
	currentID uuid.UUID
}

type Option func(*Store)

// WithClock replaces time.Now for stamping orders.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore loads the orders under ordersKey and the current order id under currentKey.
func NewStore(ctx context.Context, st storage.Storage, ordersKey, currentKey string, opts ...Option) (*Store, error) {
	s := &Store{
		storage:    st,
		ordersKey:  ordersKey,
		currentKey: currentKey,
		now:        time.Now,
		orders:     make(map[uuid.UUID]Order),
	}
	for _, opt := range opts {
		opt(s)
	}

	var list []Order
	if _, err := storage.LoadJSON(ctx, st, ordersKey, &list); err != nil {
		return nil, fmt.Errorf("order: failed to load orders: %w", err)
	}
	for _, o := range list {
		if _, dup := s.orders[o.ID]; dup {
			continue
		}
		s.orders[o.ID] = o
		s.ids = append(s.ids, o.ID)
	}

	var current string
	found, err := storage.LoadJSON(ctx, st, currentKey, &current)
	if err != nil {
		return nil, fmt.Errorf("order: failed to load current order: %w", err)
	}
	if found {
		id, err := uuid.FromString(current)
		if _, ok := s.orders[id]; err != nil || !ok {
			log.Warn().Str("current_order", current).Msg("order: dropping dangling current order reference")
		} else {
			s.currentID = id
		}
	}

	return s, nil
}

// Create stamps the draft with an id, number and creation time, puts it first
// in the list and makes it the current order.
func (s *Store) Create(ctx context.Context, d Draft) (Order, error) {
	if d.PaymentStatus != PaymentPending {
		return Order{}, ErrNotPending
	}
	if len(d.Items) == 0 {
		return Order{}, ErrNoItems
	}

	id, err := uuid.NewV4()
	if err != nil {
		return Order{}, fmt.Errorf("order: failed to generate id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	o := Order{
		ID:             id,
		Number:         s.nextNumber(now),
		Items:          d.Items,
		Totals:         d.Totals,
		Shipping:       d.Shipping,
		Billing:        d.Billing,
		PaymentMethod:  d.PaymentMethod,
		PaymentStatus:  PaymentPending,
		DeliveryStatus: DeliveryConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}.clone()

	ids := append([]uuid.UUID{id}, s.ids...)
	if err := s.persist(ctx, o, ids, id); err != nil {
		return Order{}, err
	}
	s.ids = ids

	log.Info().
		Stringer("order_id", o.ID).
		Str("order_number", o.Number).
		Int64("total", o.Totals.Total).
		Msg("order: created")

	return o.clone(), nil
}

// UpdatePaymentStatus moves the order's payment status along the allowed
// transitions. Setting the current status again is a no-op. paidAt is used
// when moving to paid; nil stamps the store's clock.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus, paidAt *time.Time) (Order, error) {
	if !status.Valid() {
		return Order{}, fmt.Errorf("%w: payment status %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.PaymentStatus == status {
		return o.clone(), nil
	}
	if !allowedPaymentTransitions[o.PaymentStatus][status] {
		log.Warn().
			Stringer("order_id", id).
			Stringer("current_status", o.PaymentStatus).
			Stringer("new_status", status).
			Msg("order: invalid payment status transition attempt")
		return Order{}, fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, o.PaymentStatus, status)
	}

	o = o.clone()
	now := s.now().UTC()
	o.PaymentStatus = status
	o.UpdatedAt = now
	switch status {
	case PaymentPaid:
		at := now
		if paidAt != nil {
			at = paidAt.UTC()
		}
		o.PaidAt = &at
	case PaymentPending:
		o.PaidAt = nil
	}

	if err := s.persist(ctx, o, s.ids, s.currentID); err != nil {
		return Order{}, err
	}

	log.Info().
		Stringer("order_id", id).
		Stringer("payment_status", status).
		Msg("order: payment status updated")

	return o.clone(), nil
}

// UpdateDeliveryStatus advances delivery by exactly one step.
func (s *Store) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status DeliveryStatus) (Order, error) {
	if !status.Valid() {
		return Order{}, fmt.Errorf("%w: delivery status %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.DeliveryStatus == status {
		return o.clone(), nil
	}
	if status.position() != o.DeliveryStatus.position()+1 {
		return Order{}, fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, o.DeliveryStatus, status)
	}

	o = o.clone()
	o.DeliveryStatus = status
	o.UpdatedAt = s.now().UTC()

	if err := s.persist(ctx, o, s.ids, s.currentID); err != nil {
		return Order{}, err
	}
	return o.clone(), nil
}

// AttachPayment records the method and transaction reference of a new
// payment attempt. The order must be pending.
func (s *Store) AttachPayment(ctx context.Context, id uuid.UUID, method payment.Descriptor, reference string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.PaymentStatus != PaymentPending {
		return Order{}, fmt.Errorf("%w: cannot attach payment to %s order", ErrInvalidStatusTransition, o.PaymentStatus)
	}

	o = o.clone()
	o.PaymentMethod = &method
	o.TransactionRef = reference
	o.Attempts++
	o.UpdatedAt = s.now().UTC()

	if err := s.persist(ctx, o, s.ids, s.currentID); err != nil {
		return Order{}, err
	}
	return o.clone(), nil
}

func (s *Store) Get(id uuid.UUID) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o.clone(), nil
}

// List returns every order, most recent first.
func (s *Store) List() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.list()
}

// Current returns the most recently placed order in this session, if any.
func (s *Store) Current() (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[s.currentID]
	if !ok {
		return Order{}, false
	}
	return o.clone(), true
}

// persist writes the current id and the orders with changed in place, and
// only then commits them to memory. A failed orders write puts the previous
// current id back so storage never points at an order it does not hold.
func (s *Store) persist(ctx context.Context, changed Order, ids []uuid.UUID, currentID uuid.UUID) error {
	list := make([]Order, 0, len(ids))
	for _, id := range ids {
		if id == changed.ID {
			list = append(list, changed)
			continue
		}
		list = append(list, s.orders[id])
	}

	currentChanged := currentID != s.currentID
	if currentChanged {
		if err := storage.SaveJSON(ctx, s.storage, s.currentKey, currentID.String()); err != nil {
			log.Error().Err(err).Stringer("order_id", currentID).Msg("order: failed to persist current order")
			return fmt.Errorf("order: failed to persist current order: %w", err)
		}
	}
	if err := storage.SaveJSON(ctx, s.storage, s.ordersKey, list); err != nil {
		log.Error().Err(err).Stringer("order_id", changed.ID).Msg("order: failed to persist orders")
		if currentChanged {
			s.restoreCurrent(ctx)
		}
		return fmt.Errorf("order: failed to persist orders: %w", err)
	}

	s.orders[changed.ID] = changed
	s.currentID = currentID
	return nil
}

// restoreCurrent writes the in-memory current id back to storage. If that
// fails too, NewStore drops the dangling reference on the next load.
func (s *Store) restoreCurrent(ctx context.Context) {
	var err error
	if s.currentID == uuid.Nil {
		err = s.storage.Delete(ctx, s.currentKey)
	} else {
		err = storage.SaveJSON(ctx, s.storage, s.currentKey, s.currentID.String())
	}
	if err != nil {
		log.Error().Err(err).Stringer("order_id", s.currentID).Msg("order: failed to restore current order")
	}
}

func (s *Store) list() []Order {
	out := make([]Order, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.orders[id].clone())
	}
	return out
}

// nextNumber returns ORD-YYYYMMDD-NNNN, numbering orders within a day from 0001.
func (s *Store) nextNumber(now time.Time) string {
	prefix := "ORD-" + now.Format("20060102") + "-"
	n := 1
	for _, o := range s.orders {
		if strings.HasPrefix(o.Number, prefix) {
			n++
		}
	}
	return fmt.Sprintf("%s%04d", prefix, n)
}
