// Package payment contains the payment method forms and the processors that
// resolve a payment attempt.
package payment

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDelay       = 3 * time.Second
	DefaultJitter      = 500 * time.Millisecond
	DefaultSuccessRate = 0.9

	// DefaultEWalletWindow is how long a shopper has to approve a wallet payment.
	DefaultEWalletWindow = 5 * time.Minute
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeExpired Outcome = "expired"
)

type Request struct {
	OrderID   uuid.UUID
	Amount    int64
	Method    Method
	Reference string
}

type Result struct {
	Outcome     Outcome   `json:"outcome"`
	Reference   string    `json:"reference"`
	Message     string    `json:"message,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Processor resolves one payment attempt. It returns ctx.Err() when ctx is
// done before an outcome is reached.
type Processor interface {
	Process(ctx context.Context, req Request) (Result, error)
}

// Simulator stands in for a gateway: it waits and then draws the outcome.
type Simulator struct {
	delay       time.Duration
	jitter      time.Duration
	successRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

type SimulatorOption func(*Simulator)

func WithDelay(delay, jitter time.Duration) SimulatorOption {
	return func(s *Simulator) {
		s.delay = delay
		s.jitter = jitter
	}
}

func WithSuccessRate(p float64) SimulatorOption {
	return func(s *Simulator) {
		s.successRate = p
	}
}

// WithRand makes the draws reproducible.
func WithRand(r *rand.Rand) SimulatorOption {
	return func(s *Simulator) {
		s.rnd = r
	}
}

func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		delay:       DefaultDelay,
		jitter:      DefaultJitter,
		successRate: DefaultSuccessRate,
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Process(ctx context.Context, req Request) (Result, error) {
	wait, success := s.draw()

	log.Debug().
		Stringer("order_id", req.OrderID).
		Str("method", req.Method.String()).
		Dur("wait", wait).
		Msg("payment: simulating gateway")

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
	}

	res := Result{
		Outcome:     OutcomeFailure,
		Reference:   req.Reference,
		Message:     "The payment was declined by the provider",
		ProcessedAt: time.Now().UTC(),
	}
	if success {
		res.Outcome = OutcomeSuccess
		res.Message = ""
	}
	return res, nil
}

func (s *Simulator) draw() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wait := s.delay
	if s.jitter > 0 {
		wait += time.Duration(s.rnd.Int64N(int64(s.jitter) + 1))
	}
	return wait, s.rnd.Float64() < s.successRate
}

// FixedOutcome always resolves to Outcome, or fails with Err when set.
type FixedOutcome struct {
	Outcome Outcome
	Err     error
}

func (f FixedOutcome) Process(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if f.Err != nil {
		return Result{}, f.Err
	}
	return Result{
		Outcome:     f.Outcome,
		Reference:   req.Reference,
		ProcessedAt: time.Now().UTC(),
	}, nil
}

// ProcessWithin runs p with a deadline of window. Running out of window is an
// expired result rather than an error; cancellation of ctx is still an error.
func ProcessWithin(ctx context.Context, p Processor, req Request, window time.Duration) (Result, error) {
	if window <= 0 {
		return p.Process(ctx, req)
	}

	wctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	res, err := p.Process(wctx, req)
	if err != nil && ctx.Err() == nil && errors.Is(wctx.Err(), context.DeadlineExceeded) {
		return Result{
			Outcome:     OutcomeExpired,
			Reference:   req.Reference,
			Message:     "The payment window expired before approval",
			ProcessedAt: time.Now().UTC(),
		}, nil
	}
	return res, err
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReference builds a transaction reference: method prefix, unix millis and
// a 6 character random suffix, e.g. CARD-1728900000000-7KQ2MB.
func NewReference(m Method, now time.Time) string {
	prefix, ok := methodPrefixes[m]
	if !ok {
		prefix = "PAY"
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	for range 6 {
		b.WriteByte(referenceAlphabet[rand.IntN(len(referenceAlphabet))])
	}
	return b.String()
}
