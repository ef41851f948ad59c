package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"claritychain/internal/amqp"
	"claritychain/internal/core"
	"claritychain/internal/ledger"
	"claritychain/internal/log"
	"claritychain/internal/sheets"
)

const anonymousDisplayName = "Anonymous"

// ExportLedger is the subset of the store the export worker reads.
type ExportLedger interface {
	ledger.DonationReader
	ledger.DonorReader
	ledger.ProjectReader
}

// ExportWorker copies confirmed donations to an external ledger.
type ExportWorker struct {
	ledger   ExportLedger
	exporter sheets.DonationExporter
}

func NewExportWorker(l ExportLedger, exporter sheets.DonationExporter) *ExportWorker {
	return &ExportWorker{ledger: l, exporter: exporter}
}

// HandleActivity exports donation events and ignores every other kind.
func (w *ExportWorker) HandleActivity(ctx context.Context, msg *amqp.ActivityMessage) error {
	if core.EventKind(msg.Kind) != core.EventDonation {
		return nil
	}

	slog.InfoContext(ctx, "Processing donation event",
		log.NewFields().
			WithComponent(log.ComponentWorker).
			WithEvent(msg.Kind, msg.ID).
			ToSlice()...)

	donor, err := w.displayName(ctx, msg.Actor)
	if err != nil {
		return err
	}
	return w.export(ctx, sheets.DonationRow{
		ID:        msg.ID,
		Timestamp: msg.OccurredAt,
		Donor:     donor,
		Project:   msg.Target,
		Amount:    core.Money{Cents: msg.AmountCents},
	}, msg.ProjectID)
}

// Backfill exports every counted donation in the ledger. The exporter skips
// ids it already holds, so this recovers events missed while the worker was
// down.
func (w *ExportWorker) Backfill(ctx context.Context) error {
	donations, err := w.ledger.ListDonations(ctx)
	if err != nil {
		return fmt.Errorf("list donations: %w", err)
	}
	projects, err := w.ledger.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	names := map[string]string{core.OperationalFundID: core.OperationalFundName}
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	exported, failed := 0, 0
	for _, d := range donations {
		if d.Status != core.StatusConfirmed {
			continue
		}
		donor := anonymousDisplayName
		if !d.IsAnonymous() {
			if donor, err = w.displayName(ctx, d.DonorID); err != nil {
				return err
			}
		}
		row := sheets.DonationRow{
			ID:        d.ID,
			Timestamp: d.Timestamp,
			Donor:     donor,
			Project:   d.TargetName,
			Amount:    d.Amount,
		}
		if row.Project == "" {
			row.Project = names[d.ProjectID]
		}
		if err := w.export(ctx, row, d.ProjectID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Backfill completed",
		"total", len(donations),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) export(ctx context.Context, row sheets.DonationRow, projectID string) error {
	ref, err := w.exporter.ExportDonation(ctx, row)
	if err != nil {
		log.LogError(ctx, "Failed to export donation", err, log.ComponentSheets, log.OpExport,
			log.NewFields().WithDonation(row.ID, "", projectID, row.Amount.Cents))
		return fmt.Errorf("export donation %s: %w", row.ID, err)
	}
	slog.InfoContext(ctx, "Exported donation",
		log.NewFields().
			WithComponent(log.ComponentSheets).
			WithDonation(row.ID, "", projectID, row.Amount.Cents).
			ToSlice()...,
	)
	slog.DebugContext(ctx, "Export ref", log.FieldSheetsRef, ref)
	return nil
}

func (w *ExportWorker) displayName(ctx context.Context, donorID string) (string, error) {
	if donorID == "" || donorID == core.AnonymousDonorID {
		return anonymousDisplayName, nil
	}
	d, err := w.ledger.GetDonor(ctx, donorID)
	if errors.Is(err, ledger.ErrNotFound) {
		return donorID, nil
	}
	if err != nil {
		return "", fmt.Errorf("get donor %s: %w", donorID, err)
	}
	return d.DisplayName, nil
}
