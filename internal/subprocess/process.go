package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wagiedev/toolagent-go/internal/errors"
)

const (
	// maxScanTokenSize is the maximum size of a single stdout line.
	maxScanTokenSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize caps the stderr kept for error reporting.
	// Draining continues past the cap so the child never blocks on stderr.
	maxStderrBufferSize = 64 * 1024
	// waitDelay bounds how long Close waits for I/O held open by
	// grandchildren after the direct child has been killed.
	waitDelay = 2 * time.Second
)

// Spec describes how to launch a service process.
type Spec struct {
	// Name identifies the service in logs and errors.
	Name string
	// Argv is the command and its arguments. Argv[0] is resolved via PATH.
	Argv []string
	// Env is overlaid on the current process environment.
	Env map[string]string
	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// Process is a running child process reached over its standard streams.
type Process struct {
	log    *slog.Logger
	spec   Spec
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	stderrMu   sync.Mutex
	stderrBuf  strings.Builder
	stderrDone chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
	exited    atomic.Bool
}

// Start launches the process described by spec.
//
// Returns ServiceUnavailableError if the command cannot be resolved or the
// process fails to start.
func Start(ctx context.Context, log *slog.Logger, spec Spec) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(spec.Argv) == 0 || spec.Argv[0] == "" {
		return nil, &errors.ServiceUnavailableError{
			Service: spec.Name,
			Err:     stderrors.New("empty command"),
		}
	}

	log = log.With("component", "subprocess", "service", spec.Name)

	path, err := exec.LookPath(spec.Argv[0])
	if err != nil {
		log.Debug("Service command not found", "command", spec.Argv[0], "error", err)

		return nil, &errors.ServiceUnavailableError{Service: spec.Name, Command: spec.Argv, Err: err}
	}

	//nolint:gosec // G204: launching configured service commands is the point
	cmd := exec.Command(path, spec.Argv[1:]...)
	cmd.Env = BuildEnvironment(spec.Env)
	cmd.Dir = spec.Dir
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &errors.ServiceUnavailableError{Service: spec.Name, Command: spec.Argv, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &errors.ServiceUnavailableError{Service: spec.Name, Command: spec.Argv, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &errors.ServiceUnavailableError{Service: spec.Name, Command: spec.Argv, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		log.Warn("Failed to start service process", "error", err)

		return nil, &errors.ServiceUnavailableError{Service: spec.Name, Command: spec.Argv, Err: fmt.Errorf("start process: %w", err)}
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	p := &Process{
		log:        log.With("pid", cmd.Process.Pid),
		spec:       spec,
		cmd:        cmd,
		stdin:      stdin,
		stdout:     scanner,
		stderrDone: make(chan struct{}),
	}

	go p.drainStderr(stderr)

	p.log.Debug("Service process started", "argv", spec.Argv)

	return p, nil
}

// PID returns the operating system process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// WriteLine writes data to stdin followed by a newline if missing.
func (p *Process) WriteLine(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	// Copy so the caller's backing array is never mutated.
	if len(data) == 0 || data[len(data)-1] != '\n' {
		line := make([]byte, len(data)+1)
		copy(line, data)
		line[len(data)] = '\n'
		data = line
	}

	if _, err := p.stdin.Write(data); err != nil {
		return fmt.Errorf("write to stdin: %w", err)
	}

	return nil
}

// CloseInput closes stdin, signalling the child that no more requests follow.
func (p *Process) CloseInput() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	return p.stdin.Close()
}

// ReadLine blocks until the child writes one line to stdout. The returned
// slice excludes the newline and is owned by the caller. Returns io.EOF when
// stdout closes without further output.
//
// ReadLine must not be called concurrently with itself.
func (p *Process) ReadLine() ([]byte, error) {
	if !p.stdout.Scan() {
		if err := p.stdout.Err(); err != nil {
			return nil, fmt.Errorf("read stdout: %w", err)
		}

		return nil, io.EOF
	}

	line := p.stdout.Bytes()
	out := make([]byte, len(line))
	copy(out, line)

	return out, nil
}

// Stderr returns the buffered stderr output collected so far.
func (p *Process) Stderr() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()

	return strings.TrimSpace(p.stderrBuf.String())
}

// Exited reports whether Close has reaped the process.
func (p *Process) Exited() bool {
	return p.exited.Load()
}

// Close kills and reaps the process. It is safe to call Close multiple times;
// only the first call signals the child.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		p.writeMu.Lock()
		_ = p.stdin.Close()
		p.writeMu.Unlock()

		if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			p.closeErr = fmt.Errorf("kill service process (pid %d): %w", p.cmd.Process.Pid, err)
		}

		// The exit status is always "killed" here; the error carries nothing.
		_ = p.cmd.Wait()

		<-p.stderrDone
		p.exited.Store(true)
		p.log.Debug("Service process terminated")
	})

	return p.closeErr
}

func (p *Process) drainStderr(r io.Reader) {
	defer close(p.stderrDone)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()

		p.stderrMu.Lock()

		if p.stderrBuf.Len() < maxStderrBufferSize {
			if p.stderrBuf.Len() > 0 {
				p.stderrBuf.WriteString("\n")
			}

			p.stderrBuf.WriteString(line)
		}

		p.stderrMu.Unlock()

		p.log.Debug("Service stderr", "line", line)
	}
}
