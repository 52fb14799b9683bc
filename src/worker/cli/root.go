package main

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
	"github.com/veedubyou/midifi/src/shared/lib/env"
)

func newRootCommand(tools toolchain) *cobra.Command {
	ctx := newCommandContext(tools)

	rootCmd := &cobra.Command{
		Use:           "midifi",
		Short:         "Turn media URLs into separated stems and MIDI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.LoadDotEnv()

			log.SetHandler(cli.New(cmd.ErrOrStderr()))
			if ctx.verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.outputRoot, "root", "", "Output root directory (default $OUTPUT_ROOT or ./output)")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Log tool output")
	flags.StringVar(&ctx.youtubeDLBin, "yt-dlp", "", "Path to yt-dlp")
	flags.StringVar(&ctx.demucsBin, "demucs", "", "Path to demucs")
	flags.StringVar(&ctx.basicPitchBin, "basic-pitch", "", "Path to basic-pitch")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newResolveCommand(ctx))

	return rootCmd
}
