package executor

import (
	"context"
	"os"
	"os/exec"
)

type Executor interface {
	Command(ctx context.Context, name string, args ...string) Cmd
}

type Cmd interface {
	SetDir(dir string)
	SetEnv(key string, value string)
	Output() ([]byte, error)
	CombinedOutput() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

// BinaryFileExecutor runs real processes. Cancelling the context kills the
// child.
type BinaryFileExecutor struct{}

func (BinaryFileExecutor) Command(ctx context.Context, name string, args ...string) Cmd {
	return &binaryCmd{cmd: exec.CommandContext(ctx, name, args...)}
}

type binaryCmd struct {
	cmd *exec.Cmd
}

func (b *binaryCmd) SetDir(dir string) {
	b.cmd.Dir = dir
}

// SetEnv sets a variable for the child only, on top of this process's
// environment.
func (b *binaryCmd) SetEnv(key string, value string) {
	if b.cmd.Env == nil {
		b.cmd.Env = os.Environ()
	}

	b.cmd.Env = append(b.cmd.Env, key+"="+value)
}

func (b *binaryCmd) Output() ([]byte, error) {
	return b.cmd.Output()
}

func (b *binaryCmd) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
