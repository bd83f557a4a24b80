// Package execcmd implements the command-execution hook driver: a resource
// whose apply shells out to an external process. Output is streamed to the
// parent process and not captured into the graph; success or failure still
// drives the resource's status like any other kind.
package execcmd

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/zclconf/go-cty/cty"

	"github.com/opsgraph/opsgraph/internal/driver"
	"github.com/opsgraph/opsgraph/internal/resource"
)

// Driver runs declared commands.
//
// Attributes: command (required), args (list), env (map, appended to the
// parent environment), dir (working directory).
type Driver struct{}

func New() *Driver { return &Driver{} }

func (d *Driver) Kind() string { return resource.KindExec }

// Outputs is empty: command output is a fire-and-forget side effect, never
// referenced by other resources.
func (d *Driver) Outputs() []string { return nil }

func (d *Driver) Apply(ctx context.Context, req driver.ApplyRequest) (driver.ApplyResult, error) {
	command, err := driver.RequiredStringAttr(req.Desired, "command")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	args, err := driver.StringListAttr(req.Desired, "args")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	env, err := driver.StringMapAttr(req.Desired, "env")
	if err != nil {
		return driver.ApplyResult{}, err
	}
	dir, err := driver.StringAttr(req.Desired, "dir")
	if err != nil {
		return driver.ApplyResult{}, err
	}

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	if err := cmd.Run(); err != nil {
		// A non-zero exit is a deterministic result of the command, not a
		// flake worth retrying.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return driver.ApplyResult{}, driver.Permanentf("command %s exited with code %d", command, exitErr.ExitCode())
		}
		if ctx.Err() != nil {
			return driver.ApplyResult{}, driver.Transient(ctx.Err())
		}
		return driver.ApplyResult{}, driver.Permanentf("command %s: %s", command, err)
	}

	return driver.ApplyResult{
		RemoteID: req.Name,
		Outputs:  cty.EmptyObjectVal,
	}, nil
}

// Read always reports absent: a command run leaves no remote object to
// query, so interrupted runs are simply re-executed.
func (d *Driver) Read(_ context.Context, _ string) (cty.Value, error) {
	return cty.NilVal, driver.ErrNotFound
}

func (d *Driver) Delete(_ context.Context, _ string) error { return nil }
