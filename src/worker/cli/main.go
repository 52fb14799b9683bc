package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/veedubyou/midifi/src/shared/config"
	"github.com/veedubyou/midifi/src/worker/internal/application/executor"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := newRootCommand(toolchain{
		executor: executor.BinaryFileExecutor{},
		lookPath: config.LookupBin,
	})

	err := cmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
