package nix

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// CommandRunner runs the nix CLI and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Builder implements ports.EnvironmentBuilder using nix print-dev-env.
type Builder struct {
	runner CommandRunner
	system string
	now    func() time.Time

	requestGroup singleflight.Group
}

var _ ports.EnvironmentBuilder = (*Builder)(nil)

// NewBuilder creates a Builder that runs the nix binary found in PATH.
func NewBuilder() *Builder {
	return NewBuilderWithRunner(execRunner{}, currentSystem())
}

// NewBuilderWithRunner creates a Builder with a custom command runner and target system.
func NewBuilderWithRunner(runner CommandRunner, system string) *Builder {
	return &Builder{
		runner: runner,
		system: system,
		now:    time.Now,
	}
}

// Expression returns the Nix expression that Build evaluates for req.
func (b *Builder) Expression(req domain.BuildRequest) (string, error) {
	return RenderExpression(req, b.system)
}

// Build materializes the environment described by req.
// Concurrent builds of the same request share a single nix invocation.
func (b *Builder) Build(ctx context.Context, req domain.BuildRequest) (*domain.Environment, error) {
	id := req.ID()

	result, err, _ := b.requestGroup.Do(id, func() (any, error) {
		expr, err := b.Expression(req)
		if err != nil {
			return nil, err
		}

		tmpPath, cleanup, err := createNixTempFile(expr)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		stdout, stderr, err := b.runner.Run(ctx, "nix",
			"--extra-experimental-features", "nix-command flakes",
			"print-dev-env", "--impure", "--json", "--file", tmpPath)
		if err != nil {
			wrapped := zerr.Wrap(err, domain.ErrNixBuildFailed.Error())
			wrapped = zerr.With(wrapped, "env_id", id)
			if msg := strings.TrimSpace(string(stderr)); msg != "" {
				wrapped = zerr.With(wrapped, "stderr", msg)
			}
			return nil, wrapped
		}

		vars, err := ParseDevEnv(stdout)
		if err != nil {
			return nil, zerr.With(err, "env_id", id)
		}

		return &domain.Environment{
			ID:        id,
			Channel:   domain.FlakeRef(req.Channel),
			Vars:      vars,
			CreatedAt: b.now().UTC(),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	env := *result.(*domain.Environment)
	env.Vars = append([]string(nil), env.Vars...)
	return &env, nil
}

// createNixTempFile writes the expression to a temporary file.
func createNixTempFile(expr string) (tmpPath string, cleanup func(), err error) {
	tmpFile, err := os.CreateTemp("", "devshell-env-*.nix")
	if err != nil {
		return "", nil, zerr.Wrap(err, "failed to create temp nix file")
	}

	tmpPath = tmpFile.Name()
	cleanup = func() {
		_ = os.Remove(tmpPath)
	}

	if _, writeErr := tmpFile.WriteString(expr); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, zerr.Wrap(writeErr, "failed to write nix expression")
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, zerr.Wrap(closeErr, "failed to close temp nix file")
	}

	return tmpPath, cleanup, nil
}
