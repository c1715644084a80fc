package app

import (
	"log/slog"
	"sync"

	"github.com/json0755/call-option-token/pkg/quant"
)

// SettlementBook is the host-side value transfer adapter. It records every
// collateral payout the instrument releases, keyed by recipient address.
// In a chain deployment this is the native transfer primitive; standalone it
// gives operators a queryable outflow ledger.
type SettlementBook struct {
	mu       sync.Mutex
	outflows map[string]quant.Sats
}

func NewSettlementBook() *SettlementBook {
	return &SettlementBook{outflows: make(map[string]quant.Sats)}
}

// Transfer records a released amount for the recipient. It never fails:
// standalone settlement is bookkeeping, not an external call.
func (s *SettlementBook) Transfer(to string, amount quant.Sats) error {
	s.mu.Lock()
	s.outflows[to] += amount
	total := s.outflows[to]
	s.mu.Unlock()

	slog.Info("collateral released",
		slog.String("to", to),
		slog.Int64("amount", int64(amount)),
		slog.Int64("total", int64(total)))
	return nil
}

// PaidTo returns the cumulative amount released to an address.
func (s *SettlementBook) PaidTo(addr string) quant.Sats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outflows[addr]
}
