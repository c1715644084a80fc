package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/json0755/call-option-token/internal/domain"
	"github.com/json0755/call-option-token/internal/infra"
	"github.com/json0755/call-option-token/internal/notify"
	"github.com/json0755/call-option-token/internal/option"
	"github.com/json0755/call-option-token/internal/storage"
)

const termsMetadataKey = "instrument:terms"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Journal    *storage.Journal
	Snapshots  *storage.SnapshotManager
	Hub        *notify.Hub
	Settlement *SettlementBook
	Contract   *option.Contract

	unlock func()
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: config, logging, workspace
// layout, the journal, and instrument recovery.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	slog.Info("🚀 Bootstrapping call option instrument...")

	// 1. Load Config (Dynamic Path Resolution)
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Workspace layout: _workspace/data + _workspace/snapshots
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data")
	snapDir := filepath.Join(workDir, "snapshots")
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := infra.EnsureDir(snapDir); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	// 3.1 Singleton Instance Lock. The journal is single-writer; a second
	// process against the same workspace would corrupt it.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	// 4. Journal (Single-Writer WAL DB)
	dbPath := filepath.Join(dataDir, "journal.db")
	journal, err := storage.NewJournal(dbPath)
	if err != nil {
		return err
	}
	b.Journal = journal
	b.Snapshots = storage.NewSnapshotManager(snapDir)
	slog.Info("✅ Journal initialized (WAL-mode)", "path", dbPath)

	// 5. Terms: the instrument is immutable after first boot. Persisted
	// terms win over config so a config edit cannot mutate a live issue.
	terms, err := b.loadOrPersistTerms(ctx)
	if err != nil {
		return err
	}

	// 6. Notification hub and settlement adapter. Zero rate config means
	// unthrottled accepts.
	var limiter *infra.RateLimiter
	if cfg.Notify.AcceptBurst > 0 && cfg.Notify.AcceptsPerSec > 0 {
		limiter = infra.NewRateLimiter(cfg.Notify.AcceptBurst, cfg.Notify.AcceptsPerSec)
	}
	b.Hub = notify.NewHub(limiter, cfg.Notify.SendBufferSize)
	b.Settlement = NewSettlementBook()

	// 7. Construct and recover the contract
	contract, err := option.Reopen(terms, option.SingleIssuer(cfg.Issuer.Address), b.Settlement,
		option.WithJournal(journal),
		option.WithNotifier(b.Hub.Publish),
	)
	if err != nil {
		return fmt.Errorf("failed to construct instrument: %w", err)
	}
	if err := b.recover(ctx, contract); err != nil {
		return err
	}
	b.Contract = contract

	info := contract.Info()
	slog.Info("✅ Instrument ready",
		"id", terms.ID,
		"symbol", terms.Symbol,
		"expired", info.Expired,
		"supply", int64(info.SupplySats))
	return nil
}

// Shutdown snapshots current state and releases all resources.
func (b *Bootstrap) Shutdown() {
	if b.Contract != nil && b.Snapshots != nil {
		if err := b.Snapshots.Save(storage.CreateSnapshot(b.Contract)); err != nil {
			slog.Error("failed to save shutdown snapshot", slog.Any("error", err))
		}
		if err := b.Snapshots.Cleanup(3); err != nil {
			slog.Warn("snapshot cleanup failed", slog.Any("error", err))
		}
	}
	if b.Hub != nil {
		b.Hub.Close()
	}
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Error("failed to close journal", slog.Any("error", err))
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
}

func (b *Bootstrap) loadOrPersistTerms(ctx context.Context) (domain.Terms, error) {
	if val, err := b.Journal.GetMetadata(ctx, termsMetadataKey); err == nil && val != "" {
		var terms domain.Terms
		if err := json.Unmarshal([]byte(val), &terms); err != nil {
			return domain.Terms{}, fmt.Errorf("corrupt persisted terms: %w", err)
		}
		slog.Info("Reusing persisted instrument terms", "id", terms.ID)
		return terms, nil
	}

	terms, err := b.Config.Terms()
	if err != nil {
		return domain.Terms{}, err
	}
	data, err := json.Marshal(terms)
	if err != nil {
		return domain.Terms{}, err
	}
	if err := b.Journal.UpsertMetadata(ctx, termsMetadataKey, string(data), 0); err != nil {
		return domain.Terms{}, fmt.Errorf("failed to persist terms: %w", err)
	}
	slog.Info("Persisted new instrument terms", "id", terms.ID)
	return terms, nil
}

// recover rebuilds instrument state: latest snapshot first, then journal
// replay of everything after it.
func (b *Bootstrap) recover(ctx context.Context, contract *option.Contract) error {
	fromSeq := uint64(1)
	snap, err := b.Snapshots.LoadLatest()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap != nil {
		if err := contract.RestoreState(snap.State); err != nil {
			return fmt.Errorf("failed to restore snapshot: %w", err)
		}
		fromSeq = snap.Seq + 1
		slog.Info("Snapshot restored", slog.Uint64("seq", snap.Seq))
	}

	events, err := b.Journal.LoadEvents(ctx, fromSeq)
	if err != nil {
		return fmt.Errorf("failed to load journal: %w", err)
	}
	for _, ev := range events {
		contract.ReplayEvent(ev)
	}
	if len(events) > 0 {
		slog.Info("Journal replayed",
			slog.Int("events", len(events)),
			slog.Uint64("last_seq", events[len(events)-1].GetSeq()))
	}
	return nil
}
