package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// ErrAuthorizationTimeout is returned when no code arrives within the
// bounded wait.
var ErrAuthorizationTimeout = errors.New("authorization timeout, please try again")

// ErrAuthorizationDenied is returned when the user rejects the consent
// prompt and the redirect carries an error instead of a code.
var ErrAuthorizationDenied = errors.New("authorization denied")

// DefaultWaitTimeout bounds how long the caller waits for the redirect.
const DefaultWaitTimeout = 120 * time.Second

// State is the listener lifecycle state.
type State int

const (
	StateIdle State = iota
	StateListening
	StateCodeReceived
	StateDenied
	StateTimedOut
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateCodeReceived:
		return "code_received"
	case StateDenied:
		return "denied"
	case StateTimedOut:
		return "timed_out"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const completionPage = `<html><body><h3>Auth complete. You can close this window.</h3></body></html>`

const deniedPage = `<html><body><h3>Authorization was denied. You can close this window.</h3></body></html>`

// Listener is a single-use local HTTP endpoint that captures the
// authorization code from the browser redirect.
//
// Lifecycle: Idle -> Listening -> {CodeReceived | Denied | TimedOut} -> Stopped.
// Requests to the wrong path are rejected with 404 and a matching request
// without a code gets 400; neither is a terminal transition. Each
// authorization attempt owns its own Listener instance.
type Listener struct {
	addr          string
	path          string
	expectedState string
	logger        *log.Logger

	mu       sync.Mutex
	state    State
	resultCh chan callbackResult
	server   *http.Server
	ln       net.Listener
	stopOnce sync.Once
}

// callbackResult is what the redirect delivered: a code, or a denial.
type callbackResult struct {
	code string
	err  error
}

// NewListener creates a Listener bound to addr (host:port) serving the
// given callback path. expectedState, if non-empty, must match the
// redirect's state parameter.
func NewListener(addr, path, expectedState string, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	if path == "" {
		path = "/callback"
	}
	return &Listener{
		addr:          addr,
		path:          path,
		expectedState: expectedState,
		logger:        logger,
		state:         StateIdle,
		resultCh:      make(chan callbackResult, 1),
	}
}

// Start binds the endpoint and begins serving. It fails fast if the port
// cannot be bound.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateIdle {
		return fmt.Errorf("listener already started (state %s)", l.state)
	}

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("bind callback listener on %s: %w", l.addr, err)
	}

	router := chi.NewRouter()
	router.Get(l.path, l.handleCallback)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	l.ln = ln
	l.server = &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	l.state = StateListening

	go func() {
		if err := l.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			l.logger.Printf("callback listener error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when addr used port 0.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return l.addr
	}
	return l.ln.Addr().String()
}

// State returns the current lifecycle state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Wait blocks until a code is captured or the timeout elapses. The
// endpoint is unbound on every exit path, including timeout and context
// cancellation.
func (l *Listener) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	defer l.Stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-l.resultCh:
		if result.err != nil {
			return "", result.err
		}
		return result.code, nil
	case <-timer.C:
		l.setState(StateTimedOut)
		return "", ErrAuthorizationTimeout
	case <-ctx.Done():
		l.setState(StateTimedOut)
		return "", ctx.Err()
	}
}

// Stop unbinds the endpoint and releases the port. Safe to call more
// than once.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		server := l.server
		l.state = StateStopped
		l.mu.Unlock()

		if server == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			_ = server.Close()
		}
	})
}

func (l *Listener) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if l.expectedState != "" && query.Get("state") != l.expectedState {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	if reason := query.Get("error"); reason != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(deniedPage))
		l.deliver(StateDenied, callbackResult{err: fmt.Errorf("%w: %s", ErrAuthorizationDenied, reason)})
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(completionPage))

	l.deliver(StateCodeReceived, callbackResult{code: code})
}

// deliver makes the terminal transition and hands the result to Wait.
// A second redirect after the first is ignored.
func (l *Listener) deliver(terminal State, result callbackResult) {
	l.mu.Lock()
	if l.state != StateListening {
		l.mu.Unlock()
		return
	}
	l.state = terminal
	l.mu.Unlock()
	l.resultCh <- result
}
