package judice

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pretor/internal/platform/config"
)

// portalStub fakes the login chain and one hearings page.
type portalStub struct {
	mu         sync.Mutex
	xsrfSeen   []string
	loginCalls int
}

func newPortalServer(t *testing.T, stub *portalStub) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/csrf-token", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok%3D"})
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.loginCalls++
		stub.mu.Unlock()
	})

	var server *httptest.Server
	mux.HandleFunc("/office/login/gerar-acesso", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"retorno":{"url":"` + server.URL + `/office/access"}}`))
	})
	mux.HandleFunc("/office/access", func(w http.ResponseWriter, r *http.Request) {})

	mux.HandleFunc("/pgj/execution-hearings/", func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.xsrfSeen = append(stub.xsrfSeen, r.Header.Get("X-XSRF-TOKEN"))
		stub.mu.Unlock()
		_, _ = w.Write([]byte("<ul></ul>"))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return New(config.Registry{
		BaseURL:     serverURL,
		LegalaURL:   serverURL,
		User:        "user",
		Password:    "pass",
		Tenant:      "tenant",
		CallTimeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAuthenticateEstablishesSession(t *testing.T) {
	stub := &portalStub{}
	server := newPortalServer(t, stub)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	session, err := client.Authenticate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 1, stub.loginCalls)

	_, err = client.GetLawsuitHearings(ctx, 42)
	require.NoError(t, err)
	require.Len(t, stub.xsrfSeen, 1)
	assert.Equal(t, "tok=", stub.xsrfSeen[0], "decoded XSRF cookie must ride every call")
}

// Re-authentication swaps the transport and CSRF header while fan-out calls
// may be mid-flight. The session manager serializes Authenticate itself, so
// the scenario is one re-auth racing many readers; both sides go through the
// session accessors, keeping this clean under the race detector.
func TestReauthenticationIsSafeDuringConcurrentCalls(t *testing.T) {
	stub := &portalStub{}
	server := newPortalServer(t, stub)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.Authenticate(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, _ = client.GetLawsuitHearings(ctx, 42)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 3; i++ {
			_, err := client.Authenticate(ctx)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()
}
