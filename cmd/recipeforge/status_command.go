package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"recipeforge/internal/config"
	"recipeforge/internal/preflight"
	"recipeforge/internal/recipes"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check storage, prompts, and stage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if ping {
				results = append(results, preflight.CheckCapability(cmd.Context(), cfg))
			}

			rows := make([][]string, 0, len(results)+3)
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}

			healthy := preflight.AllPassed(results)
			err = ctx.withRepository(cmd.Context(), func(cfg *config.Config, repo *recipes.Repository) error {
				mgr, err := newManager(cfg, repo, logger)
				if err != nil {
					return err
				}
				for _, health := range mgr.HealthCheck(cmd.Context()) {
					healthy = healthy && health.Ready
					rows = append(rows, []string{"Stage " + health.Name, passLabel(health.Ready), health.Detail})
				}
				return nil
			})
			if err != nil {
				rows = append(rows, []string{"Stages", passLabel(false), err.Error()})
				healthy = false
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{header: "Check"},
				{header: "Result"},
				{header: "Detail", maxWidth: 60},
			}, rows))
			if !healthy {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "Also send a test request to the capability provider")
	return cmd
}

func passLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}
