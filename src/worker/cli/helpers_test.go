package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/gomega"
	"github.com/veedubyou/midifi/src/worker/internal/application/integration_test/dummy"
)

const (
	youtubeDLBin  = "/bin/yt-dlp"
	demucsBin     = "/bin/demucs"
	basicPitchBin = "/bin/basic-pitch"
)

// installedTools finds every binary under /bin.
func installedTools(dummyExecutor *dummy.Executor) toolchain {
	return toolchain{
		executor: dummyExecutor,
		lookPath: func(bin string) string {
			return "/bin/" + bin
		},
	}
}

func missingTools(dummyExecutor *dummy.Executor) toolchain {
	return toolchain{
		executor: dummyExecutor,
		lookPath: func(string) string {
			return ""
		},
	}
}

func execute(tools toolchain, args ...string) (string, error) {
	cmd := newRootCommand(tools)
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeStems(invocation dummy.Invocation) ([]byte, error) {
	modelDir := filepath.Join(invocation.Arg("-o"), invocation.Arg("-n"))
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return nil, err
	}

	for _, stem := range []string{"vocals", "drums", "bass", "other"} {
		if err := os.WriteFile(filepath.Join(modelDir, stem+".mp3"), []byte(stem), 0o644); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

func writeMidi(invocation dummy.Invocation) ([]byte, error) {
	outDir, input := invocation.Args[0], invocation.Args[1]
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	return nil, os.WriteFile(filepath.Join(outDir, stem+"_basic_pitch.mid"), []byte(stem), 0o644)
}

func makeTempRoot() string {
	root, err := os.MkdirTemp("", "cli-test")
	Expect(err).NotTo(HaveOccurred())
	return root
}
