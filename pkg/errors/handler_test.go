package errors

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverMiddlewareRunsCallbacks(t *testing.T) {
	var got interface{}

	func() {
		defer RecoverMiddleware(func(r interface{}) { got = r })()
		panic("boom")
	}()

	assert.Equal(t, "boom", got)
}

func TestRecoverMiddlewareWithoutPanic(t *testing.T) {
	called := false

	func() {
		defer RecoverMiddleware(func(interface{}) { called = true })()
	}()

	assert.False(t, called)
}

func TestRecoverCommandChargesTheCommand(t *testing.T) {
	counter := metrics.CommandErrorsTotal.WithLabelValues("explode")
	before := testutil.ToFloat64(counter)

	var got interface{}
	func() {
		defer RecoverCommand(Scope{Command: "explode", GuildID: "g1"}, func(r interface{}) { got = r })()
		panic("nil map")
	}()

	assert.Equal(t, "nil map", got)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestCapturePanicCounts(t *testing.T) {
	h := newErrorHandler("", nil, DefaultMaxErrors, time.Hour)
	counter := metrics.CommandErrorsTotal.WithLabelValues("ban")
	before := testutil.ToFloat64(counter)

	h.CapturePanic(Scope{Command: "ban"}, "boom", nil)
	h.HandlePanic("outside")

	assert.Equal(t, int32(2), h.errorCount.Load())
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestEndWindowShutsDownOnBurst(t *testing.T) {
	shutdown := false
	exitCode := -1

	h := newErrorHandler("", func() { shutdown = true }, 2, time.Hour)
	h.exit = func(code int) { exitCode = code }

	h.IncrementError()
	h.IncrementError()
	assert.False(t, h.endWindow())
	assert.Equal(t, int32(0), h.errorCount.Load())
	assert.False(t, shutdown)

	for i := 0; i < 3; i++ {
		h.IncrementError()
	}
	assert.True(t, h.endWindow())
	assert.True(t, shutdown)
	assert.Equal(t, 1, exitCode)
}

func TestStopIsIdempotent(t *testing.T) {
	h := NewErrorHandler("", nil)
	assert.NotPanics(t, func() {
		h.Stop()
		h.Stop()
	})
}

func TestReportPayloadNamesTheInteraction(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := reportPayload(ReportErrorOptions{
		Error:   "Panic",
		Message: "boom",
		Scope:   Scope{Command: "mute", GuildID: "g1", UserID: "u1", InteractionID: "i1"},
		Stack:   strings.Repeat("x", maxStackLength+50),
	}, now)

	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	assert.Equal(t, "Error Panic", e.Author["name"])
	assert.Equal(t, "boom", e.Description)
	assert.Equal(t, "2026-01-02T03:04:05Z", e.Timestamp)

	names := make(map[string]string)
	for _, f := range e.Fields {
		names[f.Name] = f.Value
	}
	assert.Equal(t, "/mute", names["Command"])
	assert.Equal(t, "g1", names["Guild"])
	assert.Equal(t, "u1", names["User"])
	assert.Equal(t, "i1", names["Interaction"])
	assert.NotContains(t, names, "Channel")
	assert.Len(t, names["Stack"], maxStackLength+len("```\n\n```"))
}

func TestReportPayloadWithoutScope(t *testing.T) {
	p := reportPayload(ReportErrorOptions{Error: "Critical Error", Message: "bye"}, time.Now())
	assert.Empty(t, p.Embeds[0].Fields)
}

func TestReportPostsToWebhook(t *testing.T) {
	received := make(chan webhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		var p webhookPayload
		assert.NoError(t, json.Unmarshal(body, &p))
		received <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := newErrorHandler(srv.URL, nil, DefaultMaxErrors, time.Hour)
	h.Report(ReportErrorOptions{Error: "Panic", Message: "boom", Scope: Scope{Command: "kick"}})

	select {
	case p := <-received:
		require.Len(t, p.Embeds, 1)
		assert.Equal(t, "boom", p.Embeds[0].Description)
		assert.Equal(t, "/kick", p.Embeds[0].Fields[0].Value)
	case <-time.After(time.Second):
		t.Fatal("webhook was not called")
	}
}
