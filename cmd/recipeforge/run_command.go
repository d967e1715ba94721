package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"recipeforge/internal/config"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
	"recipeforge/internal/stage"
	"recipeforge/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var stageName string
	var resume bool

	cmd := &cobra.Command{
		Use:   "run ID",
		Short: "Run the extraction pipeline for a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withRepository(cmd.Context(), func(cfg *config.Config, repo *recipes.Repository) error {
				var opts []workflow.ManagerOption
				if cmd.Flags().Changed("resume") {
					opts = append(opts, workflow.WithResume(resume))
				}
				mgr, err := newManager(cfg, repo, logger, opts...)
				if err != nil {
					return err
				}

				var result workflow.Result
				if name := strings.TrimSpace(stageName); name != "" {
					result, err = mgr.RunStage(cmd.Context(), id, name)
				} else {
					result, err = mgr.Run(cmd.Context(), id)
				}
				if err != nil {
					return fmt.Errorf("pipeline failed (%s): %w", services.ErrorKind(err), err)
				}
				printResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stageName, "stage", "", "Run a single stage ("+strings.Join(stage.Names(), ", ")+")")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip stages already recorded as complete")
	return cmd
}

func printResult(out io.Writer, result workflow.Result) {
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped: %s\n", strings.Join(result.Skipped, ", "))
	}
	completed := "none"
	if len(result.Completed) > 0 {
		completed = strings.Join(result.Completed, ", ")
	}
	fmt.Fprintf(out, "Completed: %s (%s)\n", completed, result.Duration.Round(time.Millisecond))
}
