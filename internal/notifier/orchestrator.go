// Package notifier orchestrates a full notification pass: sync the lawsuit,
// reconcile its movimentations, ensure and send the notifications each one is
// owed, and snapshot every outcome against an execution.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pretor/internal/execution"
	"pretor/internal/lawsuit"
	"pretor/internal/movimentation"
	"pretor/internal/notification"
	"pretor/internal/publication"
	id "pretor/pkg/domain"
)

// LawsuitSyncer resolves and syncs lawsuits from the registry. Implemented by
// lawsuit.SyncService.
type LawsuitSyncer interface {
	RegistryID(ctx context.Context, cnj string) (int64, error)
	SyncLawsuit(ctx context.Context, registryID int64) (*lawsuit.Lawsuit, error)
}

// Reconciler keeps the local mirror in step with the registry. Implemented by
// reconcile.Engine.
type Reconciler interface {
	RefreshMovimentations(ctx context.Context, suit *lawsuit.Lawsuit) ([]*movimentation.Movimentation, error)
	FetchOpenPublications(ctx context.Context) ([]*publication.Publication, error)
	DeriveNewMovimentations(ctx context.Context) ([]*movimentation.Movimentation, error)
}

// Lifecycle is the notification state machine. Implemented by
// notification.Lifecycle.
type Lifecycle interface {
	CreateInitial(ctx context.Context, movID id.MovimentationID) (*notification.Notification, error)
	CreateReminder(ctx context.Context, movID id.MovimentationID) (*notification.Notification, error)
	Send(ctx context.Context, notifID id.NotificationID) (*notification.Notification, error)
}

// Tracker anchors runs and records snapshots. Implemented by
// execution.Tracker.
type Tracker interface {
	Begin(ctx context.Context) (*execution.Execution, error)
	RecordSnapshot(ctx context.Context, execID id.ExecutionID, notifID id.NotificationID) (*execution.Snapshot, error)
}

// MovimentationReport is the per-movimentation outcome of a pass.
type MovimentationReport struct {
	MovimentationID id.MovimentationID
	Skipped         bool
	Created         int
	Sent            int
	Errored         int
	Total           int
}

// Report is the outcome of one lawsuit pass.
type Report struct {
	ExecutionID    id.ExecutionID
	LawsuitID      id.LawsuitID
	CNJ            string
	Movimentations []MovimentationReport
}

// BatchReport is the outcome of a full pending-publications pass.
type BatchReport struct {
	ExecutionID           id.ExecutionID
	OpenPublications      int
	DerivedMovimentations int
	Lawsuits              []Report
	FailedLawsuits        int
}

// Orchestrator drives notification passes.
type Orchestrator struct {
	syncer        LawsuitSyncer
	reconciler    Reconciler
	lifecycle     Lifecycle
	tracker       Tracker
	notifications notification.Store
	lawsuits      lawsuit.Store
	logger        *slog.Logger
	now           func() time.Time
}

func New(
	syncer LawsuitSyncer,
	reconciler Reconciler,
	lifecycle Lifecycle,
	tracker Tracker,
	notifications notification.Store,
	lawsuits lawsuit.Store,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		syncer:        syncer,
		reconciler:    reconciler,
		lifecycle:     lifecycle,
		tracker:       tracker,
		notifications: notifications,
		lawsuits:      lawsuits,
		logger:        logger,
		now:           time.Now,
	}
}

// NotifyByCNJ runs a full pass for one lawsuit. An unknown CNJ is a terminal
// error for the run; per-movimentation failures are absorbed into the report.
func (o *Orchestrator) NotifyByCNJ(ctx context.Context, cnj string) (*Report, error) {
	exec, err := o.tracker.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return o.notifyLawsuit(ctx, exec, cnj)
}

func (o *Orchestrator) notifyLawsuit(ctx context.Context, exec *execution.Execution, cnj string) (*Report, error) {
	registryID, err := o.syncer.RegistryID(ctx, cnj)
	if err != nil {
		return nil, err
	}

	suit, err := o.syncer.SyncLawsuit(ctx, registryID)
	if err != nil {
		return nil, err
	}

	movs, err := o.reconciler.RefreshMovimentations(ctx, suit)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ExecutionID:    exec.ID,
		LawsuitID:      suit.ID,
		CNJ:            suit.CNJ,
		Movimentations: make([]MovimentationReport, len(movs)),
	}

	var g errgroup.Group
	for i, mov := range movs {
		g.Go(func() error {
			report.Movimentations[i] = o.handleMovimentation(ctx, exec, mov)
			return nil
		})
	}
	_ = g.Wait() // per-movimentation failures land in the report, never here

	return report, nil
}

// handleMovimentation ensures the movimentation's notifications exist and are
// delivered, snapshotting each one examined.
func (o *Orchestrator) handleMovimentation(ctx context.Context, exec *execution.Execution, mov *movimentation.Movimentation) MovimentationReport {
	report := MovimentationReport{MovimentationID: mov.ID}

	if !mov.Active || mov.Date.Before(o.now()) {
		report.Skipped = true
		return report
	}

	existing, err := o.notifications.ListByMovimentation(ctx, mov.ID)
	if err != nil {
		o.logger.ErrorContext(ctx, "listing notifications failed",
			"movimentation_id", mov.ID.String(), "error", err)
		report.Errored++
		return report
	}

	if len(existing) == 0 {
		if notif, err := o.lifecycle.CreateInitial(ctx, mov.ID); err != nil {
			o.logger.ErrorContext(ctx, "creating initial notification failed",
				"movimentation_id", mov.ID.String(), "error", err)
			report.Errored++
		} else if notif != nil {
			report.Created++
		}

		if notif, err := o.lifecycle.CreateReminder(ctx, mov.ID); err != nil {
			// Expected for events closer than the reminder lead.
			if errors.Is(err, notification.ErrReminderInPast) {
				o.logger.InfoContext(ctx, "skipping reminder for imminent event",
					"movimentation_id", mov.ID.String())
			} else {
				o.logger.ErrorContext(ctx, "creating reminder failed",
					"movimentation_id", mov.ID.String(), "error", err)
			}
		} else if notif != nil {
			report.Created++
		}
	}

	current, err := o.notifications.ListByMovimentation(ctx, mov.ID)
	if err != nil {
		o.logger.ErrorContext(ctx, "listing notifications failed",
			"movimentation_id", mov.ID.String(), "error", err)
		report.Errored++
		return report
	}

	for _, notif := range current {
		report.Total++
		switch {
		case notif.Status.Sendable():
			sent, err := o.lifecycle.Send(ctx, notif.ID)
			switch {
			case err != nil:
				o.logger.ErrorContext(ctx, "send failed",
					"notification_id", notif.ID.String(), "error", err)
				report.Errored++
			case sent.Status == notification.StatusSent:
				report.Sent++
			case sent.Status == notification.StatusError:
				report.Errored++
			}

		case notif.Status == notification.StatusSent:
			report.Sent++

		case notif.Status == notification.StatusError:
			report.Errored++
		}

		if _, err := o.tracker.RecordSnapshot(ctx, exec.ID, notif.ID); err != nil {
			o.logger.ErrorContext(ctx, "recording snapshot failed",
				"notification_id", notif.ID.String(), "error", err)
		}
	}
	return report
}

// RunPending runs the full batch pass: reconcile publications, derive new
// movimentations, then notify every affected lawsuit. One lawsuit's failure
// never aborts the rest.
func (o *Orchestrator) RunPending(ctx context.Context) (*BatchReport, error) {
	exec, err := o.tracker.Begin(ctx)
	if err != nil {
		return nil, err
	}

	open, err := o.reconciler.FetchOpenPublications(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.InfoContext(ctx, "open publications fetched", "count", len(open))

	derived, err := o.reconciler.DeriveNewMovimentations(ctx)
	if err != nil {
		return nil, err
	}
	o.logger.InfoContext(ctx, "new movimentations derived", "count", len(derived))

	batch := &BatchReport{
		ExecutionID:           exec.ID,
		OpenPublications:      len(open),
		DerivedMovimentations: len(derived),
	}

	cnjs, err := o.affectedCNJs(ctx, derived)
	if err != nil {
		return nil, err
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, cnj := range cnjs {
		g.Go(func() error {
			report, err := o.notifyLawsuit(ctx, exec, cnj)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.logger.ErrorContext(ctx, "lawsuit pass failed", "cnj", cnj, "error", err)
				batch.FailedLawsuits++
				return nil
			}
			batch.Lawsuits = append(batch.Lawsuits, *report)
			return nil
		})
	}
	_ = g.Wait() // lawsuit failures are counted, never propagated

	return batch, nil
}

// affectedCNJs maps derived movimentations to the distinct CNJs of their
// lawsuits.
func (o *Orchestrator) affectedCNJs(ctx context.Context, movs []*movimentation.Movimentation) ([]string, error) {
	seen := make(map[id.LawsuitID]struct{}, len(movs))
	var cnjs []string
	for _, mov := range movs {
		if _, ok := seen[mov.LawsuitID]; ok {
			continue
		}
		seen[mov.LawsuitID] = struct{}{}

		suit, err := o.lawsuits.FindLawsuitByID(ctx, mov.LawsuitID)
		if err != nil {
			return nil, fmt.Errorf("lookup lawsuit %s: %w", mov.LawsuitID, err)
		}
		cnjs = append(cnjs, suit.CNJ)
	}
	return cnjs, nil
}
