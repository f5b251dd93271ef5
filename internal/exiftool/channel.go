// Package exiftool drives an external exiftool process in two modes.
//
// Interactive queries share one long-lived process started with
// -stay_open and pointed at a scratch argument file. Each query appends its
// arguments and a numbered execute sentinel to that file and reads stdout
// until exiftool echoes the matching ready marker.
//
// Standalone runs write a complete script to a temporary file and invoke
// exiftool once against it. This is how edits for many files are committed
// in a single process lifetime.
package exiftool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fakeyudi/fixexif/internal/tempfile"
	"github.com/fakeyudi/fixexif/internal/ui"
)

// maxLineSize bounds a single line of exiftool output. Binary tags can
// produce long lines even in short-name mode.
const maxLineSize = 1 << 20

// DefaultCloseTimeout is how long Close waits for exiftool to exit after
// being told to stop before killing it.
const DefaultCloseTimeout = 5 * time.Second

// Options configures a Channel.
type Options struct {
	// Path is the exiftool executable, resolved once at startup.
	Path string
	// Args are prepended to every invocation, for example the script path
	// when Path is a perl interpreter.
	Args []string
	// TempDir holds the scratch and script files. Empty means os.TempDir.
	TempDir string
	// CloseTimeout overrides DefaultCloseTimeout.
	CloseTimeout time.Duration
	Logger       *log.Logger
}

// Channel owns at most one running exiftool process. It is not safe for
// concurrent use.
type Channel struct {
	opts   Options
	logger *log.Logger

	// Set while the interactive process is running.
	scratch    *tempfile.File
	cmd        *exec.Cmd
	lines      chan string
	stderrDone chan struct{}
	seq        int
}

// New returns a Channel. No process is started until the first Query.
func New(opts Options) *Channel {
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = DefaultCloseTimeout
	}
	return &Channel{opts: opts, logger: ui.OrDiscard(opts.Logger)}
}

func (c *Channel) command(ctx context.Context, args ...string) *exec.Cmd {
	full := make([]string, 0, len(c.opts.Args)+len(args))
	full = append(full, c.opts.Args...)
	full = append(full, args...)
	return exec.CommandContext(ctx, c.opts.Path, full...)
}

// Running reports whether the interactive process is up.
func (c *Channel) Running() bool {
	return c.cmd != nil
}

// start launches the stay-open process against a fresh scratch file.
func (c *Channel) start() error {
	scratch, err := tempfile.New(c.opts.TempDir, "fixexif-args-*.txt")
	if err != nil {
		return err
	}

	cmd := c.command(context.Background(), "-stay_open", "True", "-@", scratch.Path())
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		scratch.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		scratch.Close()
		return fmt.Errorf("stderr pipe: %w", err)
	}

	c.logger.Debug("starting exiftool", "args", cmd.Args)
	if err := cmd.Start(); err != nil {
		scratch.Close()
		return &LaunchError{Path: c.opts.Path, Err: err}
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			c.logger.Warn("exiftool", "stderr", scanner.Text())
		}
	}()

	c.scratch = scratch
	c.cmd = cmd
	c.lines = lines
	c.stderrDone = stderrDone
	c.seq = 0
	return nil
}

// Query runs one batch of arguments through the interactive process and
// returns its output without the ready marker. The process is started on
// first use.
//
// If exiftool exits before it signals ready, Query fails with a *QueryError
// wrapping ErrTruncated and the process is reaped; the next Query starts a
// new one. If ctx is cancelled the process is killed.
func (c *Channel) Query(ctx context.Context, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &QueryError{Args: args, Err: err}
	}
	if err := CheckArgs(args...); err != nil {
		return "", &QueryError{Args: args, Err: err}
	}
	if c.cmd == nil {
		if err := c.start(); err != nil {
			return "", err
		}
	}

	c.seq++
	batch := make([]string, 0, len(args)+1)
	batch = append(batch, args...)
	batch = append(batch, Execute+strconv.Itoa(c.seq))
	if err := c.scratch.Append(batch...); err != nil {
		return "", &QueryError{Args: args, Err: err}
	}
	c.logger.Debug("exiftool query", "seq", c.seq, "args", args)

	var out strings.Builder
	for {
		select {
		case <-ctx.Done():
			c.logger.Warn("query cancelled, killing exiftool", "seq", c.seq)
			c.kill()
			return "", &QueryError{Args: args, Output: out.String(), Err: ctx.Err()}

		case line, ok := <-c.lines:
			if !ok {
				c.reap()
				return "", &QueryError{Args: args, Output: out.String(), Err: ErrTruncated}
			}
			if n, ok := readyMarker(line); ok {
				if n == -1 || n == c.seq {
					return out.String(), nil
				}
				c.logger.Debug("skipping stale ready marker", "want", c.seq, "got", n)
				continue
			}
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
}

// Close stops the interactive process, if any, and deletes the scratch file.
// exiftool is asked to leave stay-open mode and given CloseTimeout to exit
// before it is killed. The Channel can be reused afterwards.
func (c *Channel) Close() error {
	if c.cmd == nil {
		return nil
	}
	if err := c.scratch.Append("-stay_open", "False"); err != nil {
		c.logger.Warn("could not ask exiftool to stop", "err", err)
		c.cmd.Process.Kill()
	}
	return c.wait(c.opts.CloseTimeout)
}

// kill terminates the interactive process immediately.
func (c *Channel) kill() {
	if c.cmd == nil {
		return
	}
	c.cmd.Process.Kill()
	c.wait(c.opts.CloseTimeout)
}

// reap collects a process that already closed its output.
func (c *Channel) reap() {
	if err := c.wait(c.opts.CloseTimeout); err != nil {
		c.logger.Warn("exiftool exited unexpectedly", "err", err)
	}
}

// wait drains stdout until the process closes it, killing the process if
// that takes longer than timeout, then releases every resource.
func (c *Channel) wait(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	expired := timer.C
	for drained := false; !drained; {
		select {
		case line, ok := <-c.lines:
			if !ok {
				drained = true
				continue
			}
			c.logger.Debug("discarding exiftool output", "line", line)
		case <-expired:
			c.logger.Warn("exiftool did not exit in time, killing it", "timeout", timeout)
			c.cmd.Process.Kill()
			expired = nil
		}
	}
	<-c.stderrDone

	err := c.cmd.Wait()
	if cerr := c.scratch.Close(); cerr != nil && err == nil {
		err = cerr
	}
	c.cmd = nil
	c.scratch = nil
	c.lines = nil
	c.stderrDone = nil
	return err
}

// Run writes script to a temporary file and runs exiftool once against it,
// outside of stay-open mode. Each file's arguments in script must end with
// the execute sentinel. The script file is removed before Run returns.
func (c *Channel) Run(ctx context.Context, script []string) (string, error) {
	if err := CheckArgs(script...); err != nil {
		return "", err
	}
	f, err := tempfile.New(c.opts.TempDir, "fixexif-batch-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.Append(script...); err != nil {
		return "", err
	}

	cmd := c.command(ctx, "-@", f.Path())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running exiftool batch", "script", f.Path(), "lines", len(script))
	if err := cmd.Start(); err != nil {
		return "", &LaunchError{Path: c.opts.Path, Err: err}
	}
	err = cmd.Wait()
	out := stripReady(stdout.String())
	if err != nil {
		return out, &RunError{Output: out, Stderr: stderr.String(), Err: err}
	}
	for _, line := range strings.Split(strings.TrimSpace(stderr.String()), "\n") {
		if line != "" {
			c.logger.Warn("exiftool", "stderr", line)
		}
	}
	return out, nil
}

// stripReady removes ready markers from standalone output.
func stripReady(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, line := range lines {
		if _, ok := readyMarker(line); ok {
			continue
		}
		sb.WriteString(line)
	}
	return sb.String()
}
