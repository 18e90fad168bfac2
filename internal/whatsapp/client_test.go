package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"pretor/internal/notification"
	"pretor/internal/platform/config"
)

type gatewayStub struct {
	numberExists   bool
	verifyStatus   int
	sendStatus     int
	verifyCalls    int
	sendCalls      int
	lastSession    string
	lastNumber     string
	lastText       string
	lastSessionKey string
}

func (g *gatewayStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/verifyNumber", func(w http.ResponseWriter, r *http.Request) {
		g.verifyCalls++
		g.lastSessionKey = r.Header.Get("sessionKey")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		g.lastSession = body["session"]
		g.lastNumber = body["number"]
		if g.verifyStatus != 0 {
			w.WriteHeader(g.verifyStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"numberExists": g.numberExists})
	})
	mux.HandleFunc("/sendText", func(w http.ResponseWriter, r *http.Request) {
		g.sendCalls++
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		g.lastText = body["text"]
		if g.sendStatus != 0 {
			w.WriteHeader(g.sendStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	})
	return mux
}

func newTestClient(t *testing.T, stub *gatewayStub) *Client {
	t.Helper()
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)

	return New(config.Whatsapp{
		BaseURL:    server.URL,
		SessionID:  "office-1",
		SessionKey: "secret-key",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSendDeliversAfterVerification(t *testing.T) {
	stub := &gatewayStub{numberExists: true}
	client := newTestClient(t, stub)

	result := client.Send(context.Background(), "+5551999990000", "mensagem")
	assert.Equal(t, notification.OutcomeSent, result.Outcome)
	assert.Equal(t, 1, stub.verifyCalls)
	assert.Equal(t, 1, stub.sendCalls)
	assert.Equal(t, "office-1", stub.lastSession)
	assert.Equal(t, "secret-key", stub.lastSessionKey)
	assert.Equal(t, "+5551999990000", stub.lastNumber)
	assert.Equal(t, "mensagem", stub.lastText)
}

func TestSendReportsNumberNotOnChannel(t *testing.T) {
	stub := &gatewayStub{numberExists: false}
	client := newTestClient(t, stub)

	result := client.Send(context.Background(), "+5551999990000", "mensagem")
	assert.Equal(t, notification.OutcomeNotOnChannel, result.Outcome)
	assert.Zero(t, stub.sendCalls)
}

func TestSendRejectsMalformedPhoneWithoutCallingGateway(t *testing.T) {
	stub := &gatewayStub{numberExists: true}
	client := newTestClient(t, stub)

	for _, phone := range []string{"", "abc", "+55abc", "123", "+5551999990000000000"} {
		result := client.Send(context.Background(), phone, "mensagem")
		assert.Equal(t, notification.OutcomeInvalidPhone, result.Outcome, "phone %q", phone)
	}
	assert.Zero(t, stub.verifyCalls)
}

func TestSendMapsGatewayFailuresToUnknown(t *testing.T) {
	stub := &gatewayStub{numberExists: true, sendStatus: http.StatusBadGateway}
	client := newTestClient(t, stub)

	result := client.Send(context.Background(), "+5551999990000", "mensagem")
	assert.Equal(t, notification.OutcomeUnknown, result.Outcome)
	assert.NotEmpty(t, result.Detail)
}

func TestSendMapsVerificationFailuresToUnknown(t *testing.T) {
	stub := &gatewayStub{verifyStatus: http.StatusInternalServerError}
	client := newTestClient(t, stub)

	result := client.Send(context.Background(), "+5551999990000", "mensagem")
	assert.Equal(t, notification.OutcomeUnknown, result.Outcome)
	assert.Zero(t, stub.sendCalls)
}

func TestValidPhone(t *testing.T) {
	assert.True(t, validPhone("+55 51 98022-3200"))
	assert.True(t, validPhone("5551980223200"))
	assert.False(t, validPhone("+55 51 98022-320a"))
	assert.False(t, validPhone("98022"))
}
