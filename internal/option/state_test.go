package option

import (
	"context"
	"testing"

	"github.com/json0755/call-option-token/internal/event"
	"github.com/json0755/call-option-token/pkg/quant"
)

// replayTarget builds a fresh contract with the same terms as src for
// deterministic replay.
func replayTarget(t *testing.T, src *Contract, clock *fakeClock) *Contract {
	t.Helper()
	c, err := New(src.Terms(), SingleIssuer(issuer), newTestSink(), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestReplay_RebuildsState(t *testing.T) {
	c, _, clock := newTestContract(t)
	ctx := context.Background()
	unit := quant.Sats(quant.SatScale)

	var journal []event.Event
	c.onEvent = func(ev event.Event) { journal = append(journal, ev) }

	if err := c.Issue(ctx, issuer, 10*unit, 10*unit); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clock.Set(c.Terms().ExpiryUnixM - hour)
	if _, err := c.Exercise(ctx, issuer, 1*unit, 3*unit); err != nil {
		t.Fatalf("Exercise: %v", err)
	}
	clock.Set(c.Terms().ExpiryUnixM + second)
	if _, err := c.Expire(ctx, issuer); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	replayed := replayTarget(t, c, clock)
	for _, ev := range journal {
		replayed.ReplayEvent(ev)
	}

	want := c.State()
	got := replayed.State()
	if got.Expired != want.Expired || got.CollateralSats != want.CollateralSats ||
		got.SupplySats != want.SupplySats || got.HoldingsSats != want.HoldingsSats ||
		got.Seq != want.Seq {
		t.Errorf("replayed state %+v; want %+v", got, want)
	}
	if replayed.BalanceOf(issuer) != c.BalanceOf(issuer) {
		t.Errorf("replayed issuer balance %d; want %d", replayed.BalanceOf(issuer), c.BalanceOf(issuer))
	}
}

func TestReplay_PanicsOnGap(t *testing.T) {
	c, _, clock := newTestContract(t)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on sequence gap")
		}
	}()

	fresh := replayTarget(t, c, clock)
	fresh.ReplayEvent(&event.IssuedEvent{
		BaseEvent:  event.BaseEvent{Seq: 5, Ts: clock.Now()},
		Issuer:     issuer,
		AmountSats: 100,
	})
}

func TestSnapshotRestore_ThenReplay(t *testing.T) {
	c, _, clock := newTestContract(t)
	ctx := context.Background()
	unit := quant.Sats(quant.SatScale)

	var journal []event.Event
	c.onEvent = func(ev event.Event) { journal = append(journal, ev) }

	if err := c.Issue(ctx, issuer, 10*unit, 10*unit); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := c.TransferUnits(issuer, holderA, 3*unit); err != nil {
		t.Fatalf("TransferUnits: %v", err)
	}
	snap := c.State() // transfers are captured by the snapshot, not the journal
	snapLen := len(journal)

	clock.Set(c.Terms().ExpiryUnixM - hour)
	if _, err := c.Exercise(ctx, holderA, 2*unit, 4*unit); err != nil {
		t.Fatalf("Exercise: %v", err)
	}

	recovered := replayTarget(t, c, clock)
	if err := recovered.RestoreState(snap); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	for _, ev := range journal[snapLen:] {
		recovered.ReplayEvent(ev)
	}

	if recovered.BalanceOf(holderA) != 1*unit {
		t.Errorf("holder balance = %d; want %d", recovered.BalanceOf(holderA), 1*unit)
	}
	if got, want := recovered.State(), c.State(); got.CollateralSats != want.CollateralSats ||
		got.SupplySats != want.SupplySats || got.HoldingsSats != want.HoldingsSats {
		t.Errorf("recovered state %+v; want %+v", got, want)
	}
}

func TestRestoreState_RejectsCorruptSnapshot(t *testing.T) {
	c, _, clock := newTestContract(t)
	fresh := replayTarget(t, c, clock)

	bad := State{
		Expired:        false,
		CollateralSats: 5,
		SupplySats:     7, // active instrument must hold 1:1 backing
		Balances:       map[string]quant.Sats{issuer: 7},
	}
	if err := fresh.RestoreState(bad); err == nil {
		t.Error("expected error for collateral/supply mismatch")
	}
}
