package option

import (
	"fmt"
	"time"

	"github.com/json0755/call-option-token/internal/domain"
	"github.com/json0755/call-option-token/internal/escrow"
	"github.com/json0755/call-option-token/internal/event"
	"github.com/json0755/call-option-token/pkg/quant"
)

// State is a point-in-time capture of the entirety of durable instrument
// state: the mutable counters plus the per-holder balance table. Terms are
// persisted separately (they never change after construction).
type State struct {
	Seq            uint64                `json:"seq"`
	Expired        bool                  `json:"expired"`
	CollateralSats quant.Sats            `json:"collateral,string"`
	SupplySats     quant.Sats            `json:"supply,string"`
	HoldingsSats   quant.Sats            `json:"holdings,string"`
	Balances       map[string]quant.Sats `json:"balances"`
}

// Reopen constructs a contract around previously validated terms for
// recovery. Unlike New it accepts an expiry already in the past, since an
// expired instrument must still be reopenable to replay its journal and
// answer reads.
func Reopen(terms domain.Terms, policy IssuerPolicy, sink escrow.Sink, opts ...Option) (*Contract, error) {
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
	return c, nil
}

// State captures the current instrument state.
func (c *Contract) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return State{
		Seq:            c.seq,
		Expired:        c.expired,
		CollateralSats: c.collateral,
		SupplySats:     c.ledger.TotalSupply(),
		HoldingsSats:   c.escrow.Balance(),
		Balances:       c.ledger.Snapshot(),
	}
}

// RestoreState replaces the instrument state from a snapshot. Used during
// recovery before replaying journaled events with a later sequence.
func (c *Contract) RestoreState(st State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st.CollateralSats < 0 || st.HoldingsSats < 0 {
		return fmt.Errorf("corrupt snapshot: negative counters")
	}
	if !st.Expired && st.CollateralSats != st.SupplySats {
		return fmt.Errorf("corrupt snapshot: collateral %d != supply %d", st.CollateralSats, st.SupplySats)
	}

	c.ledger.Restore(st.Balances, st.SupplySats)
	c.collateral = st.CollateralSats
	c.expired = st.Expired
	c.seq = st.Seq
	c.escrow.Credit(st.HoldingsSats - c.escrow.Balance())
	return nil
}

// ReplayEvent applies a journaled event synchronously without re-journaling
// or notification fan-out. Recovery replays events in sequence order on top
// of the latest snapshot; a gap means the journal is corrupt.
//
// Replay reconstructs supply, collateral, holdings and the expired flag
// exactly. Per-holder balances are exact when all unit movement between
// holders is captured by the snapshot; inter-holder transfers performed
// after the snapshot live outside the journal.
func (c *Contract) ReplayEvent(ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.GetSeq() != c.seq+1 {
		panic(fmt.Sprintf("REPLAY_GAP_DETECTED: expected %d, got %d", c.seq+1, ev.GetSeq()))
	}

	switch e := ev.(type) {
	case *event.IssuedEvent:
		c.escrow.Credit(e.AmountSats)
		c.collateral += e.AmountSats
		c.ledger.Mint(e.Issuer, e.AmountSats)
	case *event.ExercisedEvent:
		// Net escrow effect of a committed exercise: the required payment
		// stays, the released collateral leaves. Refunds net to zero.
		c.escrow.Credit(e.PaidSats)
		c.escrow.Debit(e.ReleasedSats)
		if err := c.ledger.Burn(e.Holder, e.UnitSats); err != nil {
			panic("REPLAY_BURN_FAILED: " + err.Error())
		}
		c.collateral -= e.UnitSats
	case *event.ExpiredEvent:
		c.escrow.Debit(e.SweptSats)
		c.expired = true
		c.collateral = 0
	default:
		panic(fmt.Sprintf("REPLAY_UNKNOWN_EVENT: type %d", ev.GetType()))
	}

	c.seq = ev.GetSeq()
	c.verifyInvariant()
}
