package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

// Worker is a running UCI engine. Lines is closed when the engine exits.
type Worker interface {
	Send(cmd string) error
	Lines() <-chan string
	Close() error
}

// StartFunc launches a worker.
type StartFunc func(ctx context.Context) (Worker, error)

// ProcessStarter returns a StartFunc that runs the engine binary at path.
func ProcessStarter(path string, args ...string) StartFunc {
	return func(ctx context.Context) (Worker, error) {
		if path == "" {
			return nil, fmt.Errorf("engine: no engine path configured: %w", ErrWorkerUnavailable)
		}
		return startProcess(ctx, path, args...)
	}
}

type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string

	mu     sync.Mutex
	closed bool
	quit   chan struct{}
	done   chan struct{}
}

func startProcess(ctx context.Context, path string, args ...string) (*process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine: cannot open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("engine: cannot open stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("engine: cannot start %s: %w", path, err)
	}

	p := &process{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 256),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		p.read(stdout)
		// Wait only after stdout is drained, as os/exec requires.
		_ = cmd.Wait()
	}()
	return p, nil
}

func (p *process) read(r io.Reader) {
	defer close(p.lines)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		select {
		case p.lines <- sc.Text():
		case <-p.quit:
			return
		}
	}
}

func (p *process) Send(cmd string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("engine: worker closed: %w", ErrWorkerUnavailable)
	}
	if _, err := io.WriteString(p.stdin, cmd+"\n"); err != nil {
		return fmt.Errorf("engine: write %q: %w", cmd, err)
	}
	return nil
}

func (p *process) Lines() <-chan string { return p.lines }

// Close asks the engine to quit and kills it if it does not exit promptly.
func (p *process) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	_, _ = io.WriteString(p.stdin, "quit\n")
	_ = p.stdin.Close()
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-time.After(time.Second):
		if err := p.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("engine: kill: %w", err)
		}
		<-p.done
		return nil
	}
}
