package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/veedubyou/midifi/src/shared/artifact/layout"
	mediaentity "github.com/veedubyou/midifi/src/shared/media/entity"
	"github.com/veedubyou/midifi/src/shared/media/title"
	"github.com/veedubyou/midifi/src/worker/internal/application/engines/download"
)

type resolved struct {
	Identity mediaentity.MediaIdentity `json:"identity"`
	Name     mediaentity.CanonicalName `json:"name"`
	SongDir  string                    `json:"song_dir"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var url string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the canonical names a URL resolves to without downloading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			downloader, err := ctx.downloader()
			if err != nil {
				return err
			}

			manager := layout.NewManager(ctx.root(), "", "")

			results, err := resolveURL(cmd, downloader, manager, url)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}

			return printResolved(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "Media or playlist URL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

// resolveURL looks flat playlist entries up again so their names match what
// a run would produce.
func resolveURL(cmd *cobra.Command, downloader download.Downloader, manager layout.Manager, url string) ([]resolved, error) {
	items, err := downloader.Resolve(cmd.Context(), url)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", url)
	}

	results := make([]resolved, 0, len(items))
	for _, item := range items {
		if item.IsFlat() {
			itemURL := item.ItemURL(url)
			full, err := downloader.Resolve(cmd.Context(), itemURL)
			if err != nil {
				return nil, errors.Wrapf(err, "resolve %s", itemURL)
			}
			if len(full) != 1 {
				return nil, errors.Newf("%s resolved to %d items", itemURL, len(full))
			}
			item = full[0]
		}

		identity := item.Identity(url)
		name := title.Resolve(identity)

		results = append(results, resolved{
			Identity: identity,
			Name:     name,
			SongDir:  manager.Paths(name).SongDir,
		})
	}

	return results, nil
}
