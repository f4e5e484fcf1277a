package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/recipe-stock/internal/app"
)

const defaultStockTarget = 200

// defaultStockCategories are the large categories 30 through 49.
func defaultStockCategories() []string {
	ids := make([]string, 0, 20)
	for i := 30; i <= 49; i++ {
		ids = append(ids, strconv.Itoa(i))
	}
	return ids
}

func newStockCommand(ctx *commandContext) *cobra.Command {
	var target int
	var outPath string

	cmd := &cobra.Command{
		Use:   "stock [category-id...]",
		Short: "Collect a deduplicated recipe stock across category rankings into a JSON file",
		Long: "Collect a deduplicated recipe stock across category rankings.\n" +
			"Categories are visited in random order. With no arguments the large categories 30-49 are used.\n" +
			"The stock does not touch the database or any quota.",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := args
			if len(categories) == 0 {
				categories = defaultStockCategories()
			}

			return ctx.withApp(cmd, func(a *app.App) error {
				stock, err := a.Ingest.BuildStock(cmd.Context(), categories, target)
				if err != nil {
					return err
				}
				export := toStockExport(stock)

				if outPath == "-" {
					return writeJSON(cmd, export)
				}
				if err := writeStockFile(outPath, export); err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, export.Meta)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "[OK] Saved: %s\n", outPath)
				fmt.Fprintf(w, "     actualCount = %d\n", export.Meta.ActualCount)
				fmt.Fprintf(w, "     stats       = requested %d, fetched %d, deduped %d\n",
					export.Meta.Stats.RequestedCategories, export.Meta.Stats.FetchedItems, export.Meta.Stats.Deduped)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&target, "target", "t", defaultStockTarget, "Number of distinct recipes to collect")
	cmd.Flags().StringVarP(&outPath, "out", "o", "recipes_stock.json", "Output file, or - for stdout")
	return cmd
}

func writeStockFile(path string, export stockExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encodeStock(f, export); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
