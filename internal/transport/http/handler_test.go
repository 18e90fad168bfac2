package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pretor/internal/execution"
	"pretor/internal/notification"
	"pretor/internal/notifier"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

type fakeOrchestrator struct {
	report *notifier.Report
	batch  *notifier.BatchReport
	err    error
	gotCNJ string
}

func (f *fakeOrchestrator) NotifyByCNJ(_ context.Context, cnj string) (*notifier.Report, error) {
	f.gotCNJ = cnj
	return f.report, f.err
}

func (f *fakeOrchestrator) RunPending(_ context.Context) (*notifier.BatchReport, error) {
	return f.batch, f.err
}

type fakeSender struct {
	notif *notification.Notification
	err   error
	gotID id.NotificationID
}

func (f *fakeSender) SendScheduled(_ context.Context, notifID id.NotificationID) (*notification.Notification, error) {
	f.gotID = notifID
	return f.notif, f.err
}

type fakeReporter struct {
	reports  []execution.Report
	err      error
	gotAfter time.Time
}

func (f *fakeReporter) ListSince(_ context.Context, after time.Time) ([]execution.Report, error) {
	f.gotAfter = after
	return f.reports, f.err
}

type handlerFixture struct {
	orchestrator *fakeOrchestrator
	sender       *fakeSender
	reporter     *fakeReporter
	server       http.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		orchestrator: &fakeOrchestrator{},
		sender:       &fakeSender{},
		reporter:     &fakeReporter{},
	}
	handler := NewHandler(f.orchestrator, f.sender, f.reporter,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.server = NewRouter(handler)
	return f
}

func (f *handlerFixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestNotifyByCNJEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.orchestrator.report = &notifier.Report{
		ExecutionID: id.NewExecutionID(),
		CNJ:         "0001234-56.2026.8.21.0001",
	}

	rec := f.do(t, http.MethodPost, "/lawsuits/0001234-56.2026.8.21.0001/notify")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0001234-56.2026.8.21.0001", f.orchestrator.gotCNJ)

	var body notifier.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, f.orchestrator.report.CNJ, body.CNJ)
}

func TestNotifyByCNJTranslatesNotFound(t *testing.T) {
	f := newHandlerFixture(t)
	f.orchestrator.err = fmt.Errorf("lawsuit cnj x: %w", sentinel.ErrNotFound)

	rec := f.do(t, http.MethodPost, "/lawsuits/x/notify")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunPendingEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.orchestrator.batch = &notifier.BatchReport{
		ExecutionID:      id.NewExecutionID(),
		OpenPublications: 3,
	}

	rec := f.do(t, http.MethodPost, "/notifications/run")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body notifier.BatchReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.OpenPublications)
}

func TestSendNotificationEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	notifID := id.NewNotificationID()
	f.sender.notif = &notification.Notification{ID: notifID, Status: notification.StatusSent}

	rec := f.do(t, http.MethodPost, "/notifications/"+notifID.String()+"/send")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, notifID, f.sender.gotID)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SENT", body["status"])
}

func TestSendNotificationRejectsMalformedID(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/notifications/not-a-uuid/send")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendNotificationTranslatesInvalidState(t *testing.T) {
	f := newHandlerFixture(t)
	f.sender.err = fmt.Errorf("already sent: %w", sentinel.ErrInvalidState)

	rec := f.do(t, http.MethodPost, "/notifications/"+id.NewNotificationID().String()+"/send")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListExecutionsEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.reporter.reports = []execution.Report{
		{Execution: execution.Execution{ID: id.NewExecutionID()}},
	}

	rec := f.do(t, http.MethodGet, "/executions?after=2026-08-01T00:00:00Z")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), f.reporter.gotAfter)

	var body []execution.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 1)
}

func TestListExecutionsRejectsBadTimestamp(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/executions?after=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}
