package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	runentity "github.com/veedubyou/midifi/src/shared/run/entity"
)

func printRecords(w io.Writer, records []runentity.RunRecord) error {
	table := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ARTIST\tSONG\tSTATE\tSTAGES\tDIR")

	for _, record := range records {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\n",
			orDash(record.Name.Artist),
			orDash(record.Name.Song),
			describeState(record),
			describeStages(record),
			orDash(record.Paths.SongDir),
		)
	}

	return table.Flush()
}

func describeState(record runentity.RunRecord) string {
	if record.IsFailed() {
		return fmt.Sprintf("%s (%s)", record.State, record.FailedStage)
	}

	return string(record.State)
}

func describeStages(record runentity.RunRecord) string {
	parts := make([]string, 0, len(runentity.Stages))
	for _, stage := range runentity.Stages {
		parts = append(parts, fmt.Sprintf("%s=%s", stage, record.Stage(stage).Status))
	}

	return strings.Join(parts, ",")
}

func printResolved(w io.Writer, results []resolved) error {
	table := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ARTIST\tSONG\tURL\tDIR")

	for _, result := range results {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\n",
			result.Name.Artist,
			result.Name.Song,
			result.Identity.URL,
			result.SongDir,
		)
	}

	return table.Flush()
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
