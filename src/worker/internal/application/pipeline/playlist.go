package pipeline

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/veedubyou/midifi/src/shared/lib/cerr"
	"github.com/veedubyou/midifi/src/shared/lib/mark"
	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
	"golang.org/x/sync/errgroup"
)

// RunURL expands a URL into its items and runs each one, at most plan.Jobs at
// a time. Records come back in playlist order. Only a failure to expand the
// URL is returned as an error; item failures live on their records.
func (o Orchestrator) RunURL(ctx context.Context, url string, plan runentity.Plan) ([]runentity.RunRecord, error) {
	plan = plan.WithDefaults()

	items, err := o.downloader.Resolve(ctx, url)
	if err != nil {
		return nil, cerr.Field("url", url).
			Wrap(mark.Wrap(err, CollaboratorUnavailable, "Downloader failed to resolve")).
			Error("Failed to expand URL")
	}

	log.WithFields(log.Fields{
		"url":   url,
		"items": len(items),
		"jobs":  plan.Jobs,
	}).Info("Running items")

	records := make([]runentity.RunRecord, len(items))

	group := errgroup.Group{}
	group.SetLimit(plan.Jobs)

	for i := range items {
		i := i
		item := items[i]
		group.Go(func() error {
			records[i] = o.Run(ctx, runentity.Request{
				URL:      item.ItemURL(url),
				Metadata: &item,
				Plan:     plan,
			})
			return nil
		})
	}

	_ = group.Wait()

	return records, nil
}

// RunJob runs a queued request under the caller's run ID. A URL that expands
// to more than one item becomes a playlist run: each item runs under its own
// ID, derived from the playlist run's ID so a redelivered job reuses them,
// and the returned record lists those IDs in Items.
func (o Orchestrator) RunJob(ctx context.Context, id string, request runentity.Request) (runentity.RunRecord, []runentity.RunRecord) {
	if request.URL == "" || request.Metadata != nil || request.HasArtifacts() {
		return o.RunWithID(ctx, id, request), nil
	}

	logger := log.WithFields(log.Fields{
		"run_id": id,
		"url":    request.URL,
	})

	items, err := o.downloader.Resolve(ctx, request.URL)
	if err != nil {
		// looked up again so the failure lands on the run record
		return o.RunWithID(ctx, id, request), nil
	}

	if len(items) == 1 {
		request.Metadata = &items[0]
		return o.RunWithID(ctx, id, request), nil
	}

	plan := request.Plan.WithDefaults()
	request.Plan = plan

	record := runentity.NewRunRecordWithID(id, request)
	if len(items) == 0 {
		record.Fail(runentity.ResolveStage, "URL resolved to no items")
		record.Finish()
		o.saveRecord(ctx, record)
		return record, nil
	}

	record.State = runentity.Resolved
	record.Items = make([]string, len(items))
	for i := range items {
		record.Items[i] = ItemRunID(id, items[i].ItemURL(request.URL))
	}
	o.saveRecord(ctx, record)

	logger.WithField("items", len(items)).Info("Running playlist items")

	children := make([]runentity.RunRecord, len(items))

	group := errgroup.Group{}
	group.SetLimit(plan.Jobs)

	for i := range items {
		i := i
		item := items[i]
		group.Go(func() error {
			children[i] = o.RunWithID(ctx, record.Items[i], runentity.Request{
				URL:      item.ItemURL(request.URL),
				Metadata: &item,
				Plan:     plan,
			})
			return nil
		})
	}

	_ = group.Wait()

	for _, stage := range runentity.Stages {
		record.Record(stage, runentity.SkippedResult("playlist ran as separate item runs"))
	}

	failed := 0
	for _, child := range children {
		if child.IsFailed() {
			failed++
		}
	}

	if failed > 0 {
		record.Fail(runentity.ItemsStage, fmt.Sprintf("%d of %d item runs failed", failed, len(children)))
	}

	if ctx.Err() != nil && record.IsFailed() {
		o.saveRecord(ctx, record)
		logger.Warn("Playlist run interrupted")
		return record, children
	}

	record.Finish()
	o.saveRecord(ctx, record)

	logger.WithFields(log.Fields{
		"state":  record.State,
		"failed": failed,
	}).Info("Finished playlist run")

	return record, children
}

// ItemRunID derives a stable run ID for one item of a playlist run.
func ItemRunID(playlistRunID string, itemURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(playlistRunID+" "+itemURL)).String()
}
