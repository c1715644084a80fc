// Command replay rebuilds instrument state from a journal file and prints
// the resulting state as JSON. Useful for auditing a workspace offline.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/json0755/call-option-token/internal/domain"
	"github.com/json0755/call-option-token/internal/option"
	"github.com/json0755/call-option-token/internal/storage"
	"github.com/json0755/call-option-token/pkg/quant"
)

type discardSink struct{}

func (discardSink) Transfer(string, quant.Sats) error { return nil }

func main() {
	dbPath := flag.String("db", "", "path to the journal database")
	verbose := flag.Bool("v", false, "print every event while replaying")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -db <path/to/journal.db> [-v]")
		os.Exit(2)
	}

	if err := run(*dbPath, *verbose); err != nil {
		slog.Error("replay failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(dbPath string, verbose bool) error {
	ctx := context.Background()

	journal, err := storage.NewJournal(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer journal.Close()

	rawTerms, err := journal.GetMetadata(ctx, "instrument:terms")
	if err != nil || rawTerms == "" {
		return fmt.Errorf("journal has no persisted instrument terms: %w", err)
	}
	var terms domain.Terms
	if err := json.Unmarshal([]byte(rawTerms), &terms); err != nil {
		return fmt.Errorf("corrupt persisted terms: %w", err)
	}

	contract, err := option.Reopen(terms, option.SingleIssuer(""), discardSink{})
	if err != nil {
		return fmt.Errorf("failed to construct instrument: %w", err)
	}

	events, err := journal.LoadEvents(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	for _, ev := range events {
		if verbose {
			data, _ := json.Marshal(ev)
			fmt.Printf("seq=%d type=%d %s\n", ev.GetSeq(), ev.GetType(), data)
		}
		contract.ReplayEvent(ev)
	}

	out := struct {
		Terms  domain.Terms `json:"terms"`
		Events int          `json:"events"`
		State  option.State `json:"state"`
	}{terms, len(events), contract.State()}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
