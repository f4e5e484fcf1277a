package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/recipe-stock/internal/app"
	"github.com/heartmarshall/recipe-stock/internal/domain"
)

type runOutput struct {
	RunID          string    `json:"runId"`
	Kind           string    `json:"kind"`
	Target         string    `json:"target"`
	Fetched        int       `json:"fetched"`
	Added          int       `json:"added"`
	Skipped        int       `json:"skipped"`
	QuotaExhausted bool      `json:"quotaExhausted"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <subject>",
		Short: "Show an actor's recent ingestion runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd, ctx, args[0], func(a *app.App, actorID uuid.UUID) error {
				runs, err := a.Ingest.History(cmd.Context(), actorID, limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, toRunOutput(runs))
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No ingestion runs")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						r.CreatedAt.Format(time.DateTime),
						r.Kind.String(),
						r.Target,
						strconv.Itoa(r.Added),
						strconv.Itoa(r.Skipped),
						yesNo(r.QuotaExhausted),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"When", "Kind", "Target", "Added", "Skipped", "Exhausted"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of runs (default 20)")
	return cmd
}

func toRunOutput(runs []domain.IngestRun) []runOutput {
	out := make([]runOutput, 0, len(runs))
	for _, r := range runs {
		out = append(out, runOutput{
			RunID:          r.ID,
			Kind:           r.Kind.String(),
			Target:         r.Target,
			Fetched:        r.Fetched,
			Added:          r.Added,
			Skipped:        r.Skipped,
			QuotaExhausted: r.QuotaExhausted,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out
}
