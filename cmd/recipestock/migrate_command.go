package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/recipe-stock/internal/adapter/postgres"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, ctx, func(m *postgres.Migrator) error {
				applied, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"applied": applied})
				}
				if len(applied) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
					return nil
				}
				for _, v := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "Applied %d\n", v)
				}
				return nil
			})
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, ctx, func(m *postgres.Migrator) error {
				states, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, states)
				}
				rows := make([][]string, 0, len(states))
				for _, s := range states {
					rows = append(rows, []string{strconv.FormatInt(s.Version, 10), s.Path, yesNo(s.Applied)})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Version", "File", "Applied"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	})

	return migrateCmd
}

func withMigrator(cmd *cobra.Command, ctx *commandContext, fn func(*postgres.Migrator) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	m, err := postgres.NewMigrator(cmd.Context(), cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
