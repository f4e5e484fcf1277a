package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/recipe-stock/internal/app"
	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/service/actor"
	"github.com/heartmarshall/recipe-stock/internal/service/ingest"
)

type identityFlags struct {
	email string
	name  string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.email, "email", "", "Email recorded when the actor is first seen")
	cmd.PersistentFlags().StringVar(&f.name, "name", "", "Display name recorded when the actor is first seen")
}

func (f *identityFlags) identity(subject string) actor.Identity {
	return actor.Identity{Subject: subject, Email: f.email, Name: f.name}
}

type ingestOutput struct {
	CategoryID     string    `json:"categoryId,omitempty"`
	RecipeID       string    `json:"recipeId,omitempty"`
	Fetched        int       `json:"fetched"`
	Added          int       `json:"added"`
	Skipped        int       `json:"skipped"`
	QuotaExhausted bool      `json:"quotaExhausted"`
	AlreadyOwned   bool      `json:"alreadyOwned"`
	Balance        int       `json:"balance"`
	NextRefill     time.Time `json:"nextRefill"`
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var ident identityFlags

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Add recipes to an actor's stock",
	}
	ident.register(ingestCmd)

	ingestCmd.AddCommand(&cobra.Command{
		Use:   "category <subject> <category-id>",
		Short: "Add the ranking of a category, as far as the quota allows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, ctx, ident.identity(args[0]), func(a *app.App, act domain.Actor) (*ingest.Result, error) {
				return a.Ingest.IngestFromCategory(cmd.Context(), act.ID, args[1])
			})
		},
	})

	ingestCmd.AddCommand(&cobra.Command{
		Use:   "recipe <subject> <recipe-id>",
		Short: "Add a single recipe by id, scraping its public page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, ctx, ident.identity(args[0]), func(a *app.App, act domain.Actor) (*ingest.Result, error) {
				return a.Ingest.IngestByID(cmd.Context(), act.ID, args[1])
			})
		},
	})

	return ingestCmd
}

func runIngest(cmd *cobra.Command, ctx *commandContext, id actor.Identity, fn func(*app.App, domain.Actor) (*ingest.Result, error)) error {
	return ctx.withApp(cmd, func(a *app.App) error {
		act, err := a.Actors.Resolve(cmd.Context(), id)
		if err != nil {
			return err
		}
		res, err := fn(a, *act)
		if err != nil {
			return err
		}
		if ctx.jsonOutput() {
			return writeJSON(cmd, toIngestOutput(res))
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatResult(res))
		return nil
	})
}

func toIngestOutput(r *ingest.Result) ingestOutput {
	return ingestOutput{
		CategoryID:     r.CategoryID,
		RecipeID:       r.RecipeID,
		Fetched:        r.Fetched,
		Added:          r.Added,
		Skipped:        r.Skipped,
		QuotaExhausted: r.QuotaExhausted,
		AlreadyOwned:   r.AlreadyOwned,
		Balance:        r.Balance,
		NextRefill:     r.NextRefill,
	}
}

func formatResult(r *ingest.Result) string {
	refill := r.NextRefill.Format(time.DateTime + " MST")
	switch {
	case r.AlreadyOwned:
		return fmt.Sprintf("recipeId=%s is already in your stock (balance %d, next refill %s)", r.RecipeID, r.Balance, refill)
	case r.RecipeID != "":
		return fmt.Sprintf("Added recipeId=%s (balance %d, next refill %s)", r.RecipeID, r.Balance, refill)
	}

	msg := fmt.Sprintf("Category %s: fetched %d, added %d, skipped %d, balance %d",
		r.CategoryID, r.Fetched, r.Added, r.Skipped, r.Balance)
	if r.QuotaExhausted {
		msg += fmt.Sprintf(" (quota exhausted, next refill %s)", refill)
	}
	return msg
}
