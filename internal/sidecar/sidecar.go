// Package sidecar manages the auxiliary native-side process that
// performs Azure CLI and MSAL operations for the desktop shell. The
// protocol is line-delimited JSON-RPC 2.0 over the child's stdio.
package sidecar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

const (
	// maxResponseBytes caps a single response line. Sidecar responses
	// are small JSON payloads; anything larger indicates a broken peer.
	maxResponseBytes = 4 * 1024 * 1024

	// sidecarBinary is the default executable name looked up next to
	// the studio binary and on PATH.
	sidecarBinary = "token-studio-sidecar"
)

// RPCError is a JSON-RPC error returned by the sidecar.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Manager owns the sidecar child process and serializes calls to it.
// Requests and responses are matched by running a single call at a
// time under the mutex; the sidecar answers in order.
type Manager struct {
	mu        sync.Mutex
	path      string
	logger    *slog.Logger
	cmd       *exec.Cmd
	in        io.Writer
	out       *bufio.Reader
	limit     *io.LimitedReader
	requestID uint64

	// startErr remembers the last startup failure so later calls can
	// surface it instead of a bare "not started".
	startErr error
}

// New creates a manager for the sidecar at path. The process is not
// started until Start or the first Call.
func New(path string, logger *slog.Logger) *Manager {
	return &Manager{path: path, logger: logger}
}

// NewWithIO creates a manager speaking the wire protocol over the
// given streams instead of a spawned process. Used when the sidecar
// lifecycle is managed externally, and by tests.
func NewWithIO(in io.Writer, out io.Reader, logger *slog.Logger) *Manager {
	limit := &io.LimitedReader{R: out, N: maxResponseBytes}

	return &Manager{
		logger: logger,
		in:     in,
		out:    bufio.NewReader(limit),
		limit:  limit,
	}
}

// Discover resolves the sidecar executable path. An explicit override
// wins; otherwise the binary is looked up next to the running
// executable, then on PATH.
func Discover(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("sidecar not found at %s: %w", override, err)
		}

		return override, nil
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), sidecarBinary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	path, err := exec.LookPath(sidecarBinary)
	if err != nil {
		return "", fmt.Errorf("sidecar executable %q not found next to the studio binary or on PATH", sidecarBinary)
	}

	return path, nil
}

// Start spawns the sidecar process. Calling Start on a running manager
// is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.startLocked(ctx)
}

func (m *Manager) startLocked(ctx context.Context) error {
	// Already running, or wired to in-memory pipes in tests.
	if m.in != nil {
		return nil
	}

	m.startErr = nil

	cmd := exec.CommandContext(ctx, m.path)
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		m.startErr = fmt.Errorf("opening sidecar stdin: %w", err)
		return m.startErr
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		m.startErr = fmt.Errorf("opening sidecar stdout: %w", err)
		return m.startErr
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		m.startErr = fmt.Errorf("opening sidecar stderr: %w", err)
		return m.startErr
	}

	if err := cmd.Start(); err != nil {
		m.startErr = fmt.Errorf("spawning sidecar %s: %w", m.path, err)
		return m.startErr
	}

	m.logger.Info("sidecar started", slog.String("path", m.path), slog.Int("pid", cmd.Process.Pid))

	go m.drainStderr(stderr)

	m.cmd = cmd
	m.in = stdin
	m.limit = &io.LimitedReader{R: stdout, N: maxResponseBytes}
	m.out = bufio.NewReaderSize(m.limit, 64*1024)

	return nil
}

// drainStderr forwards sidecar stderr lines to the logger so crashes
// leave a trace.
func (m *Manager) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)

	for scanner.Scan() {
		m.logger.Debug("sidecar stderr", slog.String("line", scanner.Text()))
	}
}

// Call sends a JSON-RPC request and decodes the result into result
// (which may be nil for void methods). The sidecar is started lazily
// on the first call.
func (m *Manager) Call(ctx context.Context, method string, params, result any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return fmt.Errorf("sidecar not started: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.requestID++

	raw, err := m.roundTrip(request{
		JSONRPC: "2.0",
		ID:      m.requestID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	// Void methods answer with a null or absent result; treat both as
	// success without decoding.
	if result == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}

	return nil
}

// roundTrip writes one request line and reads one response line.
// Callers hold the mutex.
func (m *Manager) roundTrip(req request) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s request: %w", req.Method, err)
	}

	payload = append(payload, '\n')
	if _, err := m.in.Write(payload); err != nil {
		return nil, fmt.Errorf("writing to sidecar: %w", err)
	}

	// The limit caps how much of the stream one response may buffer.
	// Refreshing it here charges each call its own allowance.
	m.limit.N = maxResponseBytes

	line, err := m.out.ReadBytes('\n')
	if err != nil {
		if m.limit.N <= 0 {
			return nil, fmt.Errorf("sidecar response exceeds %d bytes", maxResponseBytes)
		}

		return nil, fmt.Errorf("reading from sidecar: %w", err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parsing sidecar response: %w", err)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}

// Stop terminates the sidecar process if running.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if closer, ok := m.in.(io.Closer); ok {
		_ = closer.Close()
	}

	m.in = nil
	m.out = nil
	m.limit = nil

	if m.cmd == nil {
		return nil
	}

	if err := m.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("stopping sidecar: %w", err)
	}

	_ = m.cmd.Wait()
	m.cmd = nil

	return nil
}
