// Package shell runs commands inside materialized environments.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger  ports.Logger
	environ func() []string
}

var _ ports.Executor = (*Executor)(nil)

// NewExecutor creates a new Executor that inherits the process environment.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger:  logger,
		environ: os.Environ,
	}
}

// Execute runs cmd with the specified environment.
// It merges environments with the following priority (low to high):
// 1. os.Environ() (System base)
// 2. env (materialized environment)
//
// PATH is special: environment paths are prepended to system paths.
// Output streams left nil in cmd are forwarded to the logger line by line.
func (e *Executor) Execute(ctx context.Context, cmd ports.Command, env []string) error {
	if len(cmd.Args) == 0 {
		return domain.ErrNoCommand
	}

	name := cmd.Args[0]
	cmdEnv := resolveEnvironment(e.environ(), env)

	// Resolve the executable against the merged PATH, not the caller's.
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // user provided command
	if len(c.Args) > 0 {
		c.Args[0] = name
	}
	c.Dir = cmd.Dir
	c.Env = cmdEnv
	c.Stdin = cmd.Stdin

	var stdoutLog, stderrLog *logWriter
	if cmd.Stdout != nil {
		c.Stdout = cmd.Stdout
	} else {
		stdoutLog = &logWriter{logger: e.logger, level: "info"}
		c.Stdout = stdoutLog
	}
	if cmd.Stderr != nil {
		c.Stderr = cmd.Stderr
	} else {
		stderrLog = &logWriter{logger: e.logger, level: "error"}
		c.Stderr = stderrLog
	}

	err := c.Run()

	if stdoutLog != nil {
		stdoutLog.Flush()
	}
	if stderrLog != nil {
		stderrLog.Flush()
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		wrapped := zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "command", name)
		return zerr.With(wrapped, "exit_code", exitCode)
	}

	return nil
}

// logWriter forwards complete lines to the logger.
type logWriter struct {
	logger ports.Logger
	level  string

	mu  sync.Mutex
	buf bytes.Buffer
}

var _ io.Writer = (*logWriter)(nil)

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *logWriter) emit(line string) {
	if w.level == "info" {
		w.logger.Info(line)
		return
	}
	w.logger.Error(zerr.New(line))
}

// resolveEnvironment merges environment variables with the defined priority.
func resolveEnvironment(sysEnv, shellEnv []string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			envMap[k] = v
		}
	}

	for _, entry := range shellEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" && v != "" {
				envMap[k] = v + string(os.PathListSeparator) + sysPath
				continue
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH variable of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
