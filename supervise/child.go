// Package supervise runs the miner as a child process and keeps it
// current: a Child pipes the miner's output through the launcher, and
// a Watcher periodically checks for new releases, reinstalling and
// restarting the miner when one appears.
package supervise

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// Child is one running miner process. Its stdout and stderr are
// forwarded line by line to the configured output so the miner's
// logging survives being wrapped by the launcher.
type Child struct {
	cmd    *exec.Cmd
	done   chan error
	logger *slog.Logger

	stopOnce sync.Once
}

// Start launches binPath with args. output receives the child's
// combined stdout and stderr lines; nil means the launcher's stderr.
func Start(binPath string, args []string, output io.Writer, logger *slog.Logger) (*Child, error) {
	if output == nil {
		output = os.Stderr
	}
	logger = logger.With("component", "supervise")

	cmd := exec.Command(binPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("piping stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("piping stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", binPath, err)
	}
	logger.Info("started miner", "path", binPath, "pid", cmd.Process.Pid)

	c := &Child{
		cmd:    cmd,
		done:   make(chan error, 1),
		logger: logger,
	}

	var forwarding sync.WaitGroup
	for _, pipe := range []io.Reader{stdout, stderr} {
		forwarding.Add(1)
		go func(r io.Reader) {
			defer forwarding.Done()
			forwardLines(r, output)
		}(pipe)
	}

	go func() {
		forwarding.Wait()
		c.done <- cmd.Wait()
	}()

	return c, nil
}

// Pid returns the child's process id.
func (c *Child) Pid() int { return c.cmd.Process.Pid }

// Done returns a channel that receives the child's exit result exactly
// once.
func (c *Child) Done() <-chan error { return c.done }

// Stop kills the child. It is idempotent and does not wait for exit;
// receive from Done for that.
func (c *Child) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("stopping miner", "pid", c.cmd.Process.Pid)
		if err := c.cmd.Process.Kill(); err != nil {
			c.logger.Warn("killing miner failed", "error", err)
		}
	})
}

// forwardLines copies r to w one line at a time. Long lines are split
// by the scanner rather than dropped.
func forwardLines(r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
}
