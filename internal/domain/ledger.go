package domain

import (
	"fmt"

	"github.com/json0755/call-option-token/pkg/quant"
	"github.com/json0755/call-option-token/pkg/safe"
)

// Ledger tracks per-holder option-unit balances and the total issued supply.
// Units are created only by mint, destroyed only by burn, and conserved by
// transfer: sum(balances) == supply at every observable point.
//
// The Ledger is not safe for concurrent use on its own; the option state
// machine serializes all access under its instrument lock.
type Ledger struct {
	balances map[string]quant.Sats
	supply   quant.Sats
}

// NewLedger creates an empty unit ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]quant.Sats),
	}
}

// BalanceOf returns the holder's unit balance (zero for unknown holders).
func (l *Ledger) BalanceOf(holder string) quant.Sats {
	return l.balances[holder]
}

// TotalSupply returns the total units outstanding.
func (l *Ledger) TotalSupply() quant.Sats {
	return l.supply
}

// Mint creates amount units for the holder. Negative amounts are a caller bug.
func (l *Ledger) Mint(to string, amount quant.Sats) {
	if amount < 0 {
		panic("LEDGER_MINT_NEGATIVE")
	}
	l.balances[to] = quant.Sats(safe.Add(int64(l.balances[to]), int64(amount)))
	l.supply = quant.Sats(safe.Add(int64(l.supply), int64(amount)))
}

// Burn destroys amount units held by the holder.
func (l *Ledger) Burn(from string, amount quant.Sats) error {
	if amount < 0 {
		panic("LEDGER_BURN_NEGATIVE")
	}
	bal := l.balances[from]
	if bal < amount {
		return fmt.Errorf("burn %d exceeds balance %d of %s", amount, bal, from)
	}
	l.setBalance(from, bal-amount)
	l.supply -= amount
	return nil
}

// Transfer moves amount units between holders. Supply is unchanged.
func (l *Ledger) Transfer(from, to string, amount quant.Sats) error {
	if amount < 0 {
		panic("LEDGER_TRANSFER_NEGATIVE")
	}
	bal := l.balances[from]
	if bal < amount {
		return fmt.Errorf("transfer %d exceeds balance %d of %s", amount, bal, from)
	}
	l.setBalance(from, bal-amount)
	l.balances[to] = quant.Sats(safe.Add(int64(l.balances[to]), int64(amount)))
	return nil
}

// setBalance stores the balance, deleting zero entries to keep snapshots tight.
func (l *Ledger) setBalance(holder string, bal quant.Sats) {
	if bal == 0 {
		delete(l.balances, holder)
		return
	}
	l.balances[holder] = bal
}

// Snapshot returns a copy of all non-zero balances.
func (l *Ledger) Snapshot() map[string]quant.Sats {
	out := make(map[string]quant.Sats, len(l.balances))
	for holder, bal := range l.balances {
		out[holder] = bal
	}
	return out
}

// Restore replaces the ledger contents from a snapshot.
func (l *Ledger) Restore(balances map[string]quant.Sats, supply quant.Sats) {
	l.balances = make(map[string]quant.Sats, len(balances))
	for holder, bal := range balances {
		if bal != 0 {
			l.balances[holder] = bal
		}
	}
	l.supply = supply
	l.VerifyInvariant()
}

// VerifyInvariant panics if conservation is violated: every balance must be
// non-negative and the balances must sum to the recorded supply.
func (l *Ledger) VerifyInvariant() {
	var sum int64
	for holder, bal := range l.balances {
		if bal < 0 {
			panic(fmt.Sprintf("LEDGER_INVARIANT_VIOLATION: negative balance %d for %s", bal, holder))
		}
		sum = safe.Add(sum, int64(bal))
	}
	if sum != int64(l.supply) {
		panic(fmt.Sprintf("LEDGER_INVARIANT_VIOLATION: balances sum %d != supply %d", sum, l.supply))
	}
}
