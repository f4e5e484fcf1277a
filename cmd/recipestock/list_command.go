package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/recipe-stock/internal/app"
	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/service/actor"
)

type ownedOutput struct {
	RecipeID string    `json:"recipeId"`
	Title    string    `json:"title"`
	Time     string    `json:"time"`
	Cost     string    `json:"cost"`
	URL      string    `json:"url"`
	AddedAt  time.Time `json:"addedAt"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list <subject>",
		Short: "List an actor's stock, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd, ctx, args[0], func(a *app.App, actorID uuid.UUID) error {
				recipes, err := a.Ingest.ListOwned(cmd.Context(), actorID, query)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, toOwnedOutput(recipes))
				}
				if len(recipes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recipes in stock")
					return nil
				}
				rows := make([][]string, 0, len(recipes))
				for _, r := range recipes {
					rows = append(rows, []string{r.ID, r.Title, r.Time, r.Cost, r.AddedAt.Format(time.DateTime)})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Recipe", "Title", "Time", "Cost", "Added"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by a substring of the title or materials")
	return cmd
}

func newOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <subject> <recipe-id>",
		Short: "Print the external URL of an owned recipe",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd, ctx, args[0], func(a *app.App, actorID uuid.UUID) error {
				url, err := a.Ingest.OpenURL(cmd.Context(), actorID, args[1])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"url": url})
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}

// withActor resolves subject, creating the actor on first sight, and runs fn.
func withActor(cmd *cobra.Command, ctx *commandContext, subject string, fn func(*app.App, uuid.UUID) error) error {
	return ctx.withApp(cmd, func(a *app.App) error {
		id, err := resolveActor(cmd.Context(), a, subject)
		if err != nil {
			return err
		}
		return fn(a, id)
	})
}

func resolveActor(ctx context.Context, a *app.App, subject string) (uuid.UUID, error) {
	act, err := a.Actors.Resolve(ctx, actor.Identity{Subject: subject})
	if err != nil {
		return uuid.Nil, err
	}
	return act.ID, nil
}

func toOwnedOutput(recipes []domain.OwnedRecipe) []ownedOutput {
	out := make([]ownedOutput, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, ownedOutput{
			RecipeID: r.ID,
			Title:    r.Title,
			Time:     r.Time,
			Cost:     r.Cost,
			URL:      r.URL,
			AddedAt:  r.AddedAt,
		})
	}
	return out
}
