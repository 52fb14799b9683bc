package dummy

import (
	"context"
	"sync"

	"github.com/veedubyou/midifi/src/worker/internal/application/executor"
)

var _ executor.Executor = &Executor{}

// Invocation is one command the code under test asked to run.
type Invocation struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// Arg returns the value following flag, or "" when flag is absent.
func (i Invocation) Arg(flag string) string {
	for idx, arg := range i.Args {
		if arg == flag && idx+1 < len(i.Args) {
			return i.Args[idx+1]
		}
	}

	return ""
}

func (i Invocation) HasArg(flag string) bool {
	for _, arg := range i.Args {
		if arg == flag {
			return true
		}
	}

	return false
}

type Behaviour func(invocation Invocation) ([]byte, error)

func NewDummyExecutor() *Executor {
	return &Executor{
		Behaviours: make(map[string]Behaviour),
	}
}

// Executor fakes external binaries. Each binary name maps to a Behaviour that
// can write files the way the real tool would.
type Executor struct {
	Behaviours map[string]Behaviour

	mutex       sync.Mutex
	Invocations []Invocation
}

func (e *Executor) On(name string, behaviour Behaviour) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.Behaviours[name] = behaviour
}

func (e *Executor) Calls(name string) []Invocation {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	calls := []Invocation{}
	for _, invocation := range e.Invocations {
		if invocation.Name == name {
			calls = append(calls, invocation)
		}
	}

	return calls
}

func (e *Executor) Command(ctx context.Context, name string, args ...string) executor.Cmd {
	return &cmd{
		executor: e,
		ctx:      ctx,
		invocation: Invocation{
			Name: name,
			Args: args,
			Env:  map[string]string{},
		},
	}
}

func (e *Executor) run(ctx context.Context, invocation Invocation) ([]byte, error) {
	e.mutex.Lock()
	e.Invocations = append(e.Invocations, invocation)
	behaviour, ok := e.Behaviours[invocation.Name]
	e.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !ok {
		return []byte("command not found"), NotFound
	}

	return behaviour(invocation)
}

type cmd struct {
	executor   *Executor
	ctx        context.Context
	invocation Invocation
}

func (c *cmd) SetDir(dir string) {
	c.invocation.Dir = dir
}

func (c *cmd) SetEnv(key string, value string) {
	c.invocation.Env[key] = value
}

func (c *cmd) Output() ([]byte, error) {
	return c.executor.run(c.ctx, c.invocation)
}

func (c *cmd) CombinedOutput() ([]byte, error) {
	return c.executor.run(c.ctx, c.invocation)
}
