// Package escrow holds the deposited collateral pool backing an instrument.
// The escrow account is the only component authorized to move value out to an
// external recipient.
package escrow

import (
	"fmt"

	"github.com/json0755/call-option-token/pkg/quant"
	"github.com/json0755/call-option-token/pkg/safe"
)

// Sink is the host-supplied outbound transfer hook. A Transfer either fully
// completes or returns an error; it must never panic past this boundary.
//
// The host is expected to settle outbound transfers only when the enclosing
// state-machine operation returns success. When an operation aborts, every
// transfer it issued is discarded along with the internal rollback, keeping
// the call all-or-nothing end to end.
type Sink interface {
	Transfer(to string, amount quant.Sats) error
}

// Account tracks the escrow's raw holdings. Holdings may exceed the
// instrument's tracked collateral: strike payments accumulate here and
// out-of-band deposits are benign.
//
// Account is not safe for concurrent use on its own; the option state machine
// serializes all access under its instrument lock.
type Account struct {
	holdings quant.Sats
	sink     Sink
}

// NewAccount creates an escrow account releasing value through the sink.
func NewAccount(sink Sink) *Account {
	return &Account{sink: sink}
}

// Credit records inbound value accompanying a call. Always succeeds when the
// value actually accompanies the call, so no error return.
func (a *Account) Credit(amount quant.Sats) {
	if amount < 0 {
		panic("ESCROW_CREDIT_NEGATIVE")
	}
	a.holdings = quant.Sats(safe.Add(int64(a.holdings), int64(amount)))
}

// Debit unwinds a credit recorded earlier in an aborting operation.
// Insufficiency here means the caller's bookkeeping is corrupt.
func (a *Account) Debit(amount quant.Sats) {
	if amount < 0 {
		panic("ESCROW_DEBIT_NEGATIVE")
	}
	if a.holdings < amount {
		panic(fmt.Sprintf("ESCROW_DEBIT_INSUFFICIENT: debit %d exceeds holdings %d", amount, a.holdings))
	}
	a.holdings -= amount
}

// Release attempts an outbound transfer. On sink failure the holdings are
// restored and the error is surfaced for the caller to map to its
// transfer-failed kind.
func (a *Account) Release(to string, amount quant.Sats) error {
	if amount < 0 {
		panic("ESCROW_RELEASE_NEGATIVE")
	}
	if amount == 0 {
		return nil
	}
	if a.holdings < amount {
		return fmt.Errorf("release %d exceeds holdings %d", amount, a.holdings)
	}
	a.holdings -= amount
	if err := a.sink.Transfer(to, amount); err != nil {
		a.holdings += amount
		return fmt.Errorf("transfer to %s failed: %w", to, err)
	}
	return nil
}

// Balance returns the raw holdings (diagnostic).
func (a *Account) Balance() quant.Sats {
	return a.holdings
}
