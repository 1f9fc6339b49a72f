package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// StdioTransport runs an MCP server as a subprocess and exchanges
// newline-delimited JSON-RPC messages over its stdin/stdout. The
// subprocess is started lazily on the first Send or Notify.
type StdioTransport struct {
	command string
	args    []string
	env     []string // "KEY=VALUE", appended to the process environment

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
}

func NewStdioTransport(command string, args, env []string) *StdioTransport {
	return &StdioTransport{command: command, args: args, env: env}
}

// start launches the subprocess if it is not already running. The
// subprocess outlives individual call contexts; only Close or a transport
// failure terminates it. Caller must hold t.mu.
func (t *StdioTransport) start() error {
	if t.cmd != nil && t.cmd.ProcessState == nil {
		return nil
	}

	cmd := exec.Command(t.command, t.args...)
	cmd.Env = append(os.Environ(), t.env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stderr.Close()
		stdout.Close()
		stdin.Close()
		return fmt.Errorf("start subprocess %s: %w", t.command, err)
	}

	t.cmd = cmd
	t.stdin = stdin
	t.reader = bufio.NewReaderSize(stdout, 1<<20)

	go drainStderr(t.command, stderr)

	slog.Info("MCP subprocess started", "command", t.command, "pid", cmd.Process.Pid)
	return nil
}

// stderr is diagnostics only, never protocol.
func drainStderr(command string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	for scanner.Scan() {
		slog.Debug("MCP subprocess stderr", "command", command, "line", scanner.Text())
	}
}

type readResult struct {
	line []byte
	err  error
}

// Send writes a request to stdin and reads stdout until a response with
// the matching ID arrives. Reads run in a goroutine so a cancelled
// context can interrupt a blocked read by killing the subprocess.
func (t *StdioTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.start(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		t.cleanup()
		return nil, fmt.Errorf("write to subprocess stdin: %w", err)
	}

	for {
		ch := make(chan readResult, 1)
		go func() {
			line, readErr := t.reader.ReadBytes('\n')
			ch <- readResult{line: line, err: readErr}
		}()

		select {
		case <-ctx.Done():
			t.cleanup()
			return nil, ctx.Err()
		case res := <-ch:
			if res.err != nil {
				t.cleanup()
				return nil, fmt.Errorf("read from subprocess stdout: %w", res.err)
			}

			var resp Response
			if err := json.Unmarshal(res.line, &resp); err != nil {
				// Not JSON; servers sometimes log to stdout. Skip.
				continue
			}
			if resp.ID == req.ID {
				return &resp, nil
			}
			// Server-initiated notification or stale message. Skip.
		}
	}
}

func (t *StdioTransport) Notify(ctx context.Context, notif *Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.start(); err != nil {
		return err
	}

	data, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		t.cleanup()
		return fmt.Errorf("write notification to subprocess stdin: %w", err)
	}
	return nil
}

func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}

	if t.stdin != nil {
		t.stdin.Close()
	}

	done := make(chan error, 1)
	go func() { done <- t.cmd.Wait() }()

	select {
	case err := <-done:
		t.cmd = nil
		return err
	case <-time.After(5 * time.Second):
		slog.Warn("MCP subprocess did not exit, killing", "pid", t.cmd.Process.Pid)
		_ = t.cmd.Process.Kill()
		<-done
		t.cmd = nil
		return nil
	}
}

// cleanup resets process state after a failure. Caller must hold t.mu.
func (t *StdioTransport) cleanup() {
	if t.stdin != nil {
		t.stdin.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
		_ = t.cmd.Wait()
	}
	t.cmd = nil
	t.stdin = nil
	t.reader = nil
}
