package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/recipe-stock/internal/app"
	"github.com/heartmarshall/recipe-stock/internal/domain"
)

type suggestionOutput struct {
	CategoryID string `json:"categoryId"`
	DisplayID  string `json:"displayId,omitempty"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	Level      string `json:"level"`
	Score      int    `json:"score"`
}

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest categories whose name or path matches the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withApp(cmd, func(a *app.App) error {
				results, err := a.Catalog.Suggest(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, toSuggestionOutput(results))
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching categories")
					return nil
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.ID, r.Path, string(r.Level), strconv.Itoa(r.Score)})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Category", "Path", "Level", "Score"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of suggestions (default from config)")
	return cmd
}

func toSuggestionOutput(results []domain.ScoredEntry) []suggestionOutput {
	out := make([]suggestionOutput, 0, len(results))
	for _, r := range results {
		out = append(out, suggestionOutput{
			CategoryID: r.ID,
			DisplayID:  r.DisplayID,
			Name:       r.Name,
			Path:       r.Path,
			Level:      string(r.Level),
			Score:      r.Score,
		})
	}
	return out
}
