// Package errors keeps the bot alive through panics. Recovered panics are
// counted, reported to a Discord webhook with the command that caused them,
// and a burst of them inside one window shuts the process down.
package errors

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/goccy/go-json"
)

const (
	// DefaultMaxErrors is how many errors a window tolerates before shutdown.
	DefaultMaxErrors = 15
	// DefaultWindow is how often the error count starts over.
	DefaultWindow = 5 * time.Second

	maxStackLength = 1000
)

// Scope identifies the interaction a panic happened in. Every field is optional.
type Scope struct {
	Command       string
	GuildID       string
	ChannelID     string
	UserID        string
	InteractionID string
}

func (s Scope) fields() []embedField {
	var out []embedField
	add := func(name, value string) {
		if value != "" {
			out = append(out, embedField{Name: name, Value: value, Inline: true})
		}
	}
	if s.Command != "" {
		add("Command", "/"+s.Command)
	}
	add("Guild", s.GuildID)
	add("Channel", s.ChannelID)
	add("User", s.UserID)
	add("Interaction", s.InteractionID)
	return out
}

func (s Scope) String() string {
	if s.Command == "" {
		return "sin comando"
	}
	return fmt.Sprintf("/%s (guild=%s, user=%s)", s.Command, s.GuildID, s.UserID)
}

// ReportErrorOptions contains options for reporting an error
type ReportErrorOptions struct {
	Error   string
	Message string
	Scope   Scope
	Stack   string
}

// ErrorHandler counts errors in fixed windows and shuts down on a burst.
type ErrorHandler struct {
	errorCount atomic.Int32
	webhookURL string
	maxErrors  int32
	window     time.Duration

	shutdownFunc func()
	exit         func(code int)
	httpClient   *http.Client

	stopOnce sync.Once
	stopChan chan struct{}
}

var (
	handler *ErrorHandler
	once    sync.Once
)

// Init initializes the global error handler
func Init(webhookURL string, shutdownFunc func()) *ErrorHandler {
	once.Do(func() {
		handler = NewErrorHandler(webhookURL, shutdownFunc)
	})
	return handler
}

// Get returns the global error handler instance
func Get() *ErrorHandler {
	return handler
}

// NewErrorHandler creates a handler and starts its monitor.
func NewErrorHandler(webhookURL string, shutdownFunc func()) *ErrorHandler {
	h := newErrorHandler(webhookURL, shutdownFunc, DefaultMaxErrors, DefaultWindow)
	go h.monitor()
	return h
}

func newErrorHandler(webhookURL string, shutdownFunc func(), maxErrors int32, window time.Duration) *ErrorHandler {
	return &ErrorHandler{
		webhookURL:   webhookURL,
		maxErrors:    maxErrors,
		window:       window,
		shutdownFunc: shutdownFunc,
		exit:         os.Exit,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		stopChan:     make(chan struct{}),
	}
}

// monitor closes each window, shutting down when it held too many errors.
func (h *ErrorHandler) monitor() {
	ticker := time.NewTicker(h.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if h.endWindow() {
				return
			}
		case <-h.stopChan:
			return
		}
	}
}

// endWindow resets the count and reports whether the window triggered a shutdown.
func (h *ErrorHandler) endWindow() bool {
	count := h.errorCount.Swap(0)
	if count <= h.maxErrors {
		return false
	}

	start := time.Now()
	logger.Warn(fmt.Sprintf("Se detectaron %d errores en %v, apagando...", count, h.window), "CRITICAL")

	h.Report(ReportErrorOptions{
		Error:   "Critical Error",
		Message: fmt.Sprintf("Número inusual de errores (%d). Apagando...", count),
	})

	if h.shutdownFunc != nil {
		h.shutdownFunc()
	}

	logger.Warn(fmt.Sprintf("Finalizando proceso... Tiempo total: %v", time.Since(start)), "CRITICAL")
	h.exit(1)
	return true
}

// Stop stops the monitor. It is safe to call more than once.
func (h *ErrorHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// IncrementError counts one error in the current window.
func (h *ErrorHandler) IncrementError() int32 {
	count := h.errorCount.Add(1)
	logger.Error(fmt.Sprintf("Error count: %d", count), "AntiCrash")
	return count
}

// HandlePanic counts a panic raised outside of any command.
func (h *ErrorHandler) HandlePanic(recovered interface{}) {
	h.CapturePanic(Scope{}, recovered, nil)
}

// CapturePanic counts a panic, charges it to the scope's command and sends
// the report in the background.
func (h *ErrorHandler) CapturePanic(scope Scope, recovered interface{}, stack []byte) {
	h.IncrementError()
	countCommandError(scope)
	logger.Error(fmt.Sprintf("Panic en %s: %v", scope, recovered), "AntiCrash")

	go h.Report(ReportErrorOptions{
		Error:   "Panic",
		Message: fmt.Sprintf("%v", recovered),
		Scope:   scope,
		Stack:   string(stack),
	})
}

func countCommandError(scope Scope) {
	if scope.Command != "" {
		metrics.CommandErrorsTotal.WithLabelValues(scope.Command).Inc()
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Author      map[string]string `json:"author"`
	Description string            `json:"description"`
	Color       int               `json:"color"`
	Fields      []embedField      `json:"fields,omitempty"`
	Footer      map[string]string `json:"footer"`
	Timestamp   string            `json:"timestamp"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

func reportPayload(data ReportErrorOptions, now time.Time) webhookPayload {
	e := embed{
		Author:      map[string]string{"name": "Error " + data.Error},
		Description: data.Message,
		Color:       0xFF0000,
		Fields:      data.Scope.fields(),
		Footer:      map[string]string{"text": "PancyMod Go"},
		Timestamp:   now.Format(time.RFC3339),
	}
	if data.Stack != "" {
		stack := data.Stack
		if len(stack) > maxStackLength {
			stack = stack[:maxStackLength]
		}
		e.Fields = append(e.Fields, embedField{Name: "Stack", Value: "```\n" + stack + "\n```"})
	}
	return webhookPayload{Embeds: []embed{e}}
}

// Report sends an error report to the Discord webhook
func (h *ErrorHandler) Report(data ReportErrorOptions) {
	if h.webhookURL == "" {
		return
	}

	body, err := json.Marshal(reportPayload(data, time.Now()))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to marshal error report: %v", err), "AntiCrash")
		return
	}

	resp, err := h.httpClient.Post(h.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send error report: %v", err), "AntiCrash")
		return
	}
	defer resp.Body.Close()

	logger.Warn(fmt.Sprintf("Sent ErrorReport to Webhook, Status: %d", resp.StatusCode), "AntiCrash")
}

// RecoverMiddleware returns a recovery function for use in deferred calls.
// Each onPanic callback runs after the panic has been counted.
func RecoverMiddleware(onPanic ...func(recovered interface{})) func() {
	return func() {
		if r := recover(); r != nil {
			handleRecovered(Scope{}, r, onPanic)
		}
	}
}

// RecoverCommand is RecoverMiddleware for a command run: the panic is
// charged to scope.Command and the report names the interaction.
func RecoverCommand(scope Scope, onPanic ...func(recovered interface{})) func() {
	return func() {
		if r := recover(); r != nil {
			handleRecovered(scope, r, onPanic)
		}
	}
}

func handleRecovered(scope Scope, r interface{}, onPanic []func(interface{})) {
	if handler != nil {
		handler.CapturePanic(scope, r, debug.Stack())
	} else {
		countCommandError(scope)
		logger.Error(fmt.Sprintf("Panic recovered (no handler) en %s: %v", scope, r), "AntiCrash")
	}
	for _, fn := range onPanic {
		fn(r)
	}
}
