package notifier

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pretor/internal/execution"
	"pretor/internal/lawsuit"
	"pretor/internal/movimentation"
	"pretor/internal/notification"
	"pretor/internal/publication"
	"pretor/internal/reconcile"
	"pretor/internal/registry"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// fakeRegistry is a canned portal: one client, one lawsuit, configurable
// hearings and open publications.
type fakeRegistry struct {
	cnj      string
	hearings []registry.Hearing
	open     []registry.PublicationSummary
}

func (f *fakeRegistry) SearchLawsuitByCNJ(_ context.Context, cnj string) (*registry.LawsuitSummary, error) {
	if cnj != f.cnj {
		return nil, registry.NewError(registry.CategoryNotFound, "search", "no lawsuit for cnj", nil)
	}
	return &registry.LawsuitSummary{RegistryID: 42, CNJ: cnj, ClientRegistryID: 7}, nil
}

func (f *fakeRegistry) GetLawsuitHearings(_ context.Context, _ int64) ([]registry.Hearing, error) {
	return f.hearings, nil
}

func (f *fakeRegistry) GetLawsuitInfo(_ context.Context, registryID int64) (*registry.LawsuitInfo, error) {
	return &registry.LawsuitInfo{
		RegistryID:       registryID,
		CNJ:              f.cnj,
		ClientRegistryID: 7,
		Hearings:         f.hearings,
	}, nil
}

func (f *fakeRegistry) ListOpenPublications(_ context.Context) ([]registry.PublicationSummary, error) {
	return f.open, nil
}

func (f *fakeRegistry) GetPublicationDetail(_ context.Context, registryID int64) (*registry.PublicationDetail, error) {
	return &registry.PublicationDetail{RegistryID: registryID, CNJ: f.cnj, LawsuitRegistryID: 42}, nil
}

func (f *fakeRegistry) GetClientInfo(_ context.Context, registryID int64) (*registry.ClientInfo, error) {
	return &registry.ClientInfo{
		RegistryID: registryID,
		Name:       "JOHN DOE",
		CellPhone:  "+5551999990000",
	}, nil
}

type okChannel struct {
	calls int
}

func (c *okChannel) Send(_ context.Context, _, _ string) notification.SendResult {
	c.calls++
	return notification.SendResult{Outcome: notification.OutcomeSent}
}

type recordingScheduler struct {
	calls int
}

func (s *recordingScheduler) ScheduleAt(_ context.Context, _ time.Time, notifID id.NotificationID) (string, error) {
	s.calls++
	return "schedule:" + notifID.String(), nil
}

type worldFixture struct {
	orchestrator  *Orchestrator
	registry      *fakeRegistry
	channel       *okChannel
	scheduler     *recordingScheduler
	tracker       *execution.Tracker
	executions    *execution.InMemoryStore
	notifications *notification.InMemoryStore
	movs          *movimentation.InMemoryStore
	lawsuits      *lawsuit.InMemoryStore
	publications  *publication.InMemoryStore
}

// newWorld wires real services over memory stores, faking only the three
// external collaborators: portal, channel and scheduler.
func newWorld(t *testing.T) *worldFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := &worldFixture{
		registry:      &fakeRegistry{cnj: "0001234-56.2026.8.21.0001"},
		channel:       &okChannel{},
		scheduler:     &recordingScheduler{},
		executions:    execution.NewInMemoryStore(),
		notifications: notification.NewInMemoryStore(),
		movs:          movimentation.NewInMemoryStore(),
		lawsuits:      lawsuit.NewInMemoryStore(),
		publications:  publication.NewInMemoryStore(),
	}

	importer := movimentation.NewImporter(w.movs)
	syncer := lawsuit.NewSyncService(w.lawsuits, w.registry, importer, logger)
	engine := reconcile.NewEngine(w.registry, syncer, w.lawsuits, w.movs, w.publications, logger, nil)
	lifecycle := notification.NewLifecycle(
		w.notifications, w.movs, w.lawsuits, syncer, notification.NewRenderer(),
		w.channel, w.scheduler, 14*24*time.Hour, logger, nil,
	)
	w.tracker = execution.NewTracker(w.executions, w.notifications, logger)
	w.orchestrator = New(syncer, engine, lifecycle, w.tracker, w.notifications, w.lawsuits, logger)
	return w
}

func futureHearing(registryID int64, daysAhead int) registry.Hearing {
	date := time.Now().AddDate(0, 0, daysAhead)
	return registry.Hearing{
		RegistryID:   registryID,
		Kind:         registry.KindHearing,
		Date:         date,
		LastModified: time.Now(),
	}
}

func TestNotifyByCNJEndToEnd(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.registry.hearings = []registry.Hearing{futureHearing(100, 30)}

	report, err := w.orchestrator.NotifyByCNJ(ctx, w.registry.cnj)
	require.NoError(t, err)
	require.Len(t, report.Movimentations, 1)

	mr := report.Movimentations[0]
	assert.False(t, mr.Skipped)
	assert.Equal(t, 2, mr.Created, "initial plus reminder")
	assert.Equal(t, 1, mr.Sent)
	assert.Equal(t, 0, mr.Errored)
	assert.Equal(t, 2, mr.Total)

	// One SENT initial, one SCHEDULED reminder.
	mov, err := w.movs.FindByRegistryID(ctx, 100)
	require.NoError(t, err)
	all, err := w.notifications.ListByMovimentation(ctx, mov.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byKind := map[notification.Kind]*notification.Notification{}
	for _, n := range all {
		byKind[n.Kind] = n
	}
	require.Contains(t, byKind, notification.KindInitial)
	require.Contains(t, byKind, notification.KindReminder)
	assert.Equal(t, notification.StatusSent, byKind[notification.KindInitial].Status)
	assert.Equal(t, notification.StatusScheduled, byKind[notification.KindReminder].Status)
	assert.NotEmpty(t, byKind[notification.KindReminder].ScheduleRef)
	assert.Equal(t, 1, w.channel.calls)
	assert.Equal(t, 1, w.scheduler.calls)

	// The execution carries both snapshots.
	snaps, err := w.executions.ListSnapshots(ctx, report.ExecutionID)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestNotifyByCNJUnknownLawsuitIsTerminal(t *testing.T) {
	w := newWorld(t)

	_, err := w.orchestrator.NotifyByCNJ(context.Background(), "9999999-99.2026.8.21.0001")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestNotifyByCNJSkipsPastAndInactiveMovimentations(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.registry.hearings = []registry.Hearing{
		futureHearing(100, -10), // already happened
		futureHearing(101, 30),
	}

	report, err := w.orchestrator.NotifyByCNJ(ctx, w.registry.cnj)
	require.NoError(t, err)
	require.Len(t, report.Movimentations, 2)

	skipped, active := 0, 0
	for _, mr := range report.Movimentations {
		if mr.Skipped {
			skipped++
		} else {
			active++
			assert.Equal(t, 1, mr.Sent)
		}
	}
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, active)
}

func TestNotifyByCNJIsIdempotentAcrossRuns(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.registry.hearings = []registry.Hearing{futureHearing(100, 30)}

	first, err := w.orchestrator.NotifyByCNJ(ctx, w.registry.cnj)
	require.NoError(t, err)
	require.Equal(t, 2, first.Movimentations[0].Created)

	// Second run creates nothing new and does not double-send.
	second, err := w.orchestrator.NotifyByCNJ(ctx, w.registry.cnj)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Movimentations[0].Created)
	assert.Equal(t, 1, second.Movimentations[0].Sent)
	assert.Equal(t, 1, w.channel.calls)

	mov, err := w.movs.FindByRegistryID(ctx, 100)
	require.NoError(t, err)
	all, err := w.notifications.ListByMovimentation(ctx, mov.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNotifyByCNJSuppressesConciliationHearings(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	hearing := futureHearing(100, 30)
	hearing.Variant = movimentation.VariantConciliation
	w.registry.hearings = []registry.Hearing{hearing}

	report, err := w.orchestrator.NotifyByCNJ(ctx, w.registry.cnj)
	require.NoError(t, err)
	require.Len(t, report.Movimentations, 1)
	assert.Equal(t, 0, report.Movimentations[0].Created)
	assert.Equal(t, 0, report.Movimentations[0].Total)
	assert.Zero(t, w.channel.calls)
}

func TestRunPendingNotifiesLawsuitsOfDerivedMovimentations(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	expedition := time.Now().AddDate(0, 0, -30)
	w.registry.open = []registry.PublicationSummary{
		{RegistryID: 900, CNJ: w.registry.cnj, ExpeditionDate: expedition},
	}

	// First pass watches the publication while it is open.
	batch, err := w.orchestrator.RunPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.OpenPublications)
	assert.Equal(t, 0, batch.DerivedMovimentations)

	// The publication closes and a fresh hearing appears.
	w.registry.open = nil
	w.registry.hearings = []registry.Hearing{futureHearing(100, 30)}

	batch, err = w.orchestrator.RunPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.DerivedMovimentations)
	require.Len(t, batch.Lawsuits, 1)
	assert.Equal(t, 0, batch.FailedLawsuits)

	mr := batch.Lawsuits[0].Movimentations[0]
	assert.Equal(t, 1, mr.Sent)
}
