package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pretor/internal/registry/metrics"
)

// ErrSessionExhausted is returned when a call still fails with a stale session
// after one re-authentication. Callers must treat it as fatal for the run.
var ErrSessionExhausted = errors.New("registry session stale after re-authentication")

// Retrying decorates a Client with the per-call timeout and the
// retry-once-on-stale-session policy: when a call fails with a stale_session
// category the session is invalidated, re-established, and the call repeated
// exactly once. Every other failure passes through untouched.
type Retrying struct {
	inner    Client
	sessions *SessionManager
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewRetrying wraps the given client.
func NewRetrying(inner Client, sessions *SessionManager, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Retrying {
	return &Retrying{
		inner:    inner,
		sessions: sessions,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

func (r *Retrying) do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.sessions.Ensure(ctx); err != nil {
		r.metrics.IncrementFailure(op, string(CategoryOutage))
		return err
	}

	start := time.Now()
	err := call(ctx)
	r.metrics.ObserveCall(op, time.Since(start))

	if err == nil {
		return nil
	}
	if !IsStaleSession(err) {
		r.metrics.IncrementFailure(op, string(CategoryOf(err)))
		return err
	}

	r.logger.WarnContext(ctx, "registry session stale, re-authenticating",
		"op", op,
	)
	r.metrics.IncrementReauth()
	r.sessions.Invalidate()
	if _, err := r.sessions.Ensure(ctx); err != nil {
		r.metrics.IncrementFailure(op, string(CategoryOutage))
		return err
	}

	start = time.Now()
	err = call(ctx)
	r.metrics.ObserveCall(op, time.Since(start))
	if err == nil {
		return nil
	}

	r.metrics.IncrementFailure(op, string(CategoryOf(err)))
	if IsStaleSession(err) {
		return ErrSessionExhausted
	}
	return err
}

func (r *Retrying) SearchLawsuitByCNJ(ctx context.Context, cnj string) (*LawsuitSummary, error) {
	var out *LawsuitSummary
	err := r.do(ctx, "search_lawsuit", func(ctx context.Context) error {
		var err error
		out, err = r.inner.SearchLawsuitByCNJ(ctx, cnj)
		return err
	})
	return out, err
}

func (r *Retrying) GetLawsuitHearings(ctx context.Context, lawsuitRegistryID int64) ([]Hearing, error) {
	var out []Hearing
	err := r.do(ctx, "lawsuit_hearings", func(ctx context.Context) error {
		var err error
		out, err = r.inner.GetLawsuitHearings(ctx, lawsuitRegistryID)
		return err
	})
	return out, err
}

func (r *Retrying) GetLawsuitInfo(ctx context.Context, lawsuitRegistryID int64) (*LawsuitInfo, error) {
	var out *LawsuitInfo
	err := r.do(ctx, "lawsuit_info", func(ctx context.Context) error {
		var err error
		out, err = r.inner.GetLawsuitInfo(ctx, lawsuitRegistryID)
		return err
	})
	return out, err
}

func (r *Retrying) ListOpenPublications(ctx context.Context) ([]PublicationSummary, error) {
	var out []PublicationSummary
	err := r.do(ctx, "open_publications", func(ctx context.Context) error {
		var err error
		out, err = r.inner.ListOpenPublications(ctx)
		return err
	})
	return out, err
}

func (r *Retrying) GetPublicationDetail(ctx context.Context, publicationRegistryID int64) (*PublicationDetail, error) {
	var out *PublicationDetail
	err := r.do(ctx, "publication_detail", func(ctx context.Context) error {
		var err error
		out, err = r.inner.GetPublicationDetail(ctx, publicationRegistryID)
		return err
	})
	return out, err
}

func (r *Retrying) GetClientInfo(ctx context.Context, clientRegistryID int64) (*ClientInfo, error) {
	var out *ClientInfo
	err := r.do(ctx, "client_info", func(ctx context.Context) error {
		var err error
		out, err = r.inner.GetClientInfo(ctx, clientRegistryID)
		return err
	})
	return out, err
}

var _ Client = (*Retrying)(nil)
