// Package option implements the call-option lifecycle state machine: issuance,
// exercise, and expiry over an escrowed collateral pool. Total claims never
// exceed deposited collateral, exercise is legal only inside the fixed
// pre-expiry window, and every mutating call is atomic: it either commits in
// full or leaves no state change behind.
package option

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/json0755/call-option-token/internal/domain"
	"github.com/json0755/call-option-token/internal/escrow"
	"github.com/json0755/call-option-token/internal/event"
	"github.com/json0755/call-option-token/pkg/quant"
	"github.com/json0755/call-option-token/pkg/safe"
)

// ExerciseWindow is the fixed duration before expiry during which exercise is
// permitted. Boundary instants are inclusive on both ends.
const ExerciseWindow = quant.TimeStamp(24 * time.Hour / time.Microsecond)

// Journal persists lifecycle events. Optional; a nil journal disables
// persistence without changing operation semantics.
type Journal interface {
	Append(ctx context.Context, ev event.Event) error
}

// Contract is the option state machine. It exclusively owns the instrument's
// mutable state (unit ledger, collateral counter, expired flag) and serializes
// every mutating operation under one lock spanning the whole call, including
// the outbound transfer sub-steps. The safety property is the ordering: units
// are burned and the collateral counter decremented strictly before any value
// leaves the escrow, so a reentrant call observes already-updated state.
type Contract struct {
	terms  domain.Terms
	policy IssuerPolicy

	mu         sync.RWMutex
	ledger     *domain.Ledger
	escrow     *escrow.Account
	collateral quant.Sats // escrowed value redeemable by unit holders
	expired    bool       // monotonic false -> true
	seq        uint64

	journal Journal
	onEvent func(event.Event)
	now     func() quant.TimeStamp
}

// Option configures optional collaborators on a Contract.
type Option func(*Contract)

// WithJournal persists every emitted lifecycle event.
func WithJournal(j Journal) Option {
	return func(c *Contract) { c.journal = j }
}

// WithNotifier invokes fn for every emitted lifecycle event, after commit.
func WithNotifier(fn func(event.Event)) Option {
	return func(c *Contract) { c.onEvent = fn }
}

// WithClock overrides the time source (tests, replay).
func WithClock(now func() quant.TimeStamp) Option {
	return func(c *Contract) { c.now = now }
}

// New validates the immutable terms and constructs an Active contract.
func New(terms domain.Terms, policy IssuerPolicy, sink escrow.Sink, opts ...Option) (*Contract, error) {
	c := &Contract{
		terms:  terms,
		policy: policy,
		ledger: domain.NewLedger(),
		escrow: escrow.NewAccount(sink),
		now: func() quant.TimeStamp {
			return quant.TimeStamp(time.Now().UnixMicro())
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if !terms.IsNative() {
		return nil, ErrUnsupported
	}
	if terms.StrikeMicros <= 0 {
		return nil, ErrInvalidTerms
	}
	if terms.ExpiryUnixM <= c.now() {
		return nil, ErrInvalidTerms
	}
	return c, nil
}

// Terms returns the immutable instrument attributes.
func (c *Contract) Terms() domain.Terms {
	return c.terms
}

// Issue deposits collateral and mints option units to the issuer. The
// accompanying value must exactly equal the requested amount: the native
// collateral path tolerates no partial or over-deposit.
func (c *Contract) Issue(ctx context.Context, caller string, amount, deposited quant.Sats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.policy.IsIssuer(caller) {
		return ErrUnauthorized
	}
	if !c.terms.IsNative() {
		return ErrUnsupported
	}
	if c.expired {
		return ErrAlreadyExpired
	}
	if amount <= 0 {
		return ErrZeroAmount
	}
	if deposited != amount {
		return ErrAmountMismatch
	}

	c.escrow.Credit(deposited)
	c.collateral = quant.Sats(safe.Add(int64(c.collateral), int64(amount)))
	c.ledger.Mint(caller, amount)
	c.verifyInvariant()

	c.emit(ctx, &event.IssuedEvent{
		BaseEvent:  c.nextBase(),
		Issuer:     caller,
		AmountSats: amount,
	})
	return nil
}

// Receipt summarizes a committed exercise.
type Receipt struct {
	UnitsBurned        quant.Sats
	CollateralReleased quant.Sats
	PaymentTaken       quant.Sats
	Refunded           quant.Sats
}

// Exercise burns the caller's units and releases the matching collateral at
// the strike price. Excess payment is refunded. Any failed outbound leg
// aborts the whole call: the burn and the collateral decrement are unwound
// and ErrTransferFailed is returned.
func (c *Contract) Exercise(ctx context.Context, caller string, units, paid quant.Sats) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.expired {
		return Receipt{}, ErrAlreadyExpired
	}
	now := c.now()
	if !c.isExercisable(now) {
		return Receipt{}, ErrNotInExerciseWindow
	}
	if units <= 0 {
		return Receipt{}, ErrZeroAmount
	}
	if c.ledger.BalanceOf(caller) < units {
		return Receipt{}, ErrInsufficientUnitBalance
	}
	required := c.quote(units)
	if paid < required {
		return Receipt{}, ErrInsufficientPayment
	}

	// State mutation strictly before any outbound transfer: a reentrant call
	// through the sink sees the burn already applied and finds nothing left
	// to double-claim.
	c.escrow.Credit(paid)
	if err := c.ledger.Burn(caller, units); err != nil {
		panic("EXERCISE_BURN_AFTER_CHECK: " + err.Error())
	}
	c.collateral = quant.Sats(safe.Sub(int64(c.collateral), int64(units)))

	refund := paid - required
	if refund > 0 {
		if err := c.escrow.Release(caller, refund); err != nil {
			c.rollbackExercise(caller, units, paid, 0)
			slog.Warn("exercise refund leg failed", "holder", caller, "err", err)
			return Receipt{}, ErrTransferFailed
		}
	}
	if err := c.escrow.Release(caller, units); err != nil {
		// The refund leg already debited its amount; the host discards that
		// staged transfer together with this abort.
		c.rollbackExercise(caller, units, paid, refund)
		slog.Warn("exercise payout leg failed", "holder", caller, "err", err)
		return Receipt{}, ErrTransferFailed
	}
	c.verifyInvariant()

	c.emit(ctx, &event.ExercisedEvent{
		BaseEvent:    c.nextBase(),
		Holder:       caller,
		UnitSats:     units,
		ReleasedSats: units,
		PaidSats:     required,
	})
	return Receipt{
		UnitsBurned:        units,
		CollateralReleased: units,
		PaymentTaken:       required,
		Refunded:           refund,
	}, nil
}

// rollbackExercise unwinds all state mutation of an aborting exercise call.
// releasedRefund is the portion of paid already debited by a completed refund
// leg; its outbound transfer is discarded by the host along with the abort.
func (c *Contract) rollbackExercise(caller string, units, paid, releasedRefund quant.Sats) {
	c.escrow.Debit(paid - releasedRefund)
	c.ledger.Mint(caller, units)
	c.collateral += units
	c.verifyInvariant()
}

// Expire flips the instrument to its terminal state and sweeps all remaining
// tracked collateral back to the issuer. A zero sweep is legal and still
// flips state. One-shot: a second call fails ErrAlreadyExpired.
func (c *Contract) Expire(ctx context.Context, caller string) (quant.Sats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.policy.IsIssuer(caller) {
		return 0, ErrUnauthorized
	}
	if c.expired {
		return 0, ErrAlreadyExpired
	}
	if c.now() < c.terms.ExpiryUnixM {
		return 0, ErrNotYetExpirable
	}

	swept := c.collateral
	c.expired = true
	c.collateral = 0
	if err := c.escrow.Release(caller, swept); err != nil {
		c.expired = false
		c.collateral = swept
		slog.Warn("expire sweep failed", "issuer", caller, "err", err)
		return 0, ErrTransferFailed
	}

	c.emit(ctx, &event.ExpiredEvent{
		BaseEvent: c.nextBase(),
		Issuer:    caller,
		SweptSats: swept,
	})
	return swept, nil
}

// Quote returns the payment required to exercise the given units:
// units * strike / PriceScale, truncating toward zero. The truncation
// direction is the economically meaningful rounding rule for this instrument
// and must match Exercise exactly.
func (c *Contract) Quote(units quant.Sats) quant.Sats {
	return c.quote(units)
}

func (c *Contract) quote(units quant.Sats) quant.Sats {
	return quant.Sats(safe.MulDiv(int64(units), int64(c.terms.StrikeMicros), quant.PriceScale))
}

// Info is the read-only instrument summary.
type Info struct {
	Name           string            `json:"name"`
	Symbol         string            `json:"symbol"`
	StrikeMicros   quant.PriceMicros `json:"strike,string"`
	ExpiryUnixM    quant.TimeStamp   `json:"expiry,string"`
	SupplySats     quant.Sats        `json:"supply,string"`
	CollateralSats quant.Sats        `json:"collateral,string"`
	Expired        bool              `json:"expired"`
	CanExercise    bool              `json:"can_exercise"`
}

// Info returns the instrument summary, including the derived exercisability.
func (c *Contract) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Info{
		Name:           c.terms.Name,
		Symbol:         c.terms.Symbol,
		StrikeMicros:   c.terms.StrikeMicros,
		ExpiryUnixM:    c.terms.ExpiryUnixM,
		SupplySats:     c.ledger.TotalSupply(),
		CollateralSats: c.collateral,
		Expired:        c.expired,
		CanExercise:    !c.expired && c.isExercisable(c.now()),
	}
}

// EscrowBalance returns the escrow's raw holdings. Diagnostic only: holdings
// may exceed the tracked collateral when strike payments or out-of-band
// deposits accumulated, which is expected and benign.
func (c *Contract) EscrowBalance() quant.Sats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.escrow.Balance()
}

// BalanceOf returns a holder's unit balance.
func (c *Contract) BalanceOf(holder string) quant.Sats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.BalanceOf(holder)
}

// TransferUnits moves units between holders. Units are fungible and freely
// transferable while the core's own state is untouched (supply and collateral
// are unchanged).
func (c *Contract) TransferUnits(from, to string, units quant.Sats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if units <= 0 {
		return ErrZeroAmount
	}
	if c.ledger.BalanceOf(from) < units {
		return ErrInsufficientUnitBalance
	}
	if err := c.ledger.Transfer(from, to, units); err != nil {
		panic("TRANSFER_AFTER_CHECK: " + err.Error())
	}
	return nil
}

// isExercisable reports whether now is inside [expiry-Window, expiry],
// inclusive on both ends.
func (c *Contract) isExercisable(now quant.TimeStamp) bool {
	return now >= c.terms.ExpiryUnixM-ExerciseWindow && now <= c.terms.ExpiryUnixM
}

// verifyInvariant asserts 1:1 backing while the instrument is active:
// the tracked collateral equals the outstanding unit supply.
func (c *Contract) verifyInvariant() {
	c.ledger.VerifyInvariant()
	if !c.expired && c.collateral != c.ledger.TotalSupply() {
		panic("OPTION_INVARIANT_VIOLATION: collateral != unit supply")
	}
}

func (c *Contract) nextBase() event.BaseEvent {
	c.seq++
	return event.BaseEvent{Seq: c.seq, Ts: c.now()}
}

// emit journals and fans out a committed lifecycle event. Journal failures are
// logged, not surfaced: durability is the hosting environment's concern and
// must not unwind an already-committed transition.
func (c *Contract) emit(ctx context.Context, ev event.Event) {
	if c.journal != nil {
		if err := c.journal.Append(ctx, ev); err != nil {
			slog.Error("journal append failed", "seq", ev.GetSeq(), "err", err)
		}
	}
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}
