package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"recipeforge/internal/config"
	"recipeforge/internal/logging"
	"recipeforge/internal/notifications"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var ratingFlag string
	var runPipeline bool

	cmd := &cobra.Command{
		Use:   "create IMAGE...",
		Short: "Create a recipe from one or more photographs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating := recipes.RatingUnknown
			if strings.TrimSpace(ratingFlag) != "" {
				parsed, ok := recipes.ParseRating(ratingFlag)
				if !ok {
					return fmt.Errorf("invalid rating %q (use 0-3 or unknown, dislike, like, love)", ratingFlag)
				}
				rating = parsed
			}

			images := make([][]byte, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read image %s: %w", arg, err)
				}
				images = append(images, data)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withRepository(cmd.Context(), func(cfg *config.Config, repo *recipes.Repository) error {
				id, err := repo.CreateWithRating(cmd.Context(), images, rating)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created recipe %s with %d image(s)\n", id, len(images))

				record, err := repo.LoadInfo(cmd.Context(), id)
				if err != nil {
					return err
				}
				notifier := notifications.NewService(cfg)
				urls := recipes.OriginalURLs(cfg.Notifications.PublicBaseURL, record)
				if err := notifier.NotifyRecipeCreated(cmd.Context(), id, urls); err != nil {
					logging.WarnWithContext(logger, "creation notification failed", "notification_failed",
						logging.String(logging.FieldRecipeID, id),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check notifications.webhook_url"),
					)
				}

				if !runPipeline {
					return nil
				}
				mgr, err := newManager(cfg, repo, logger)
				if err != nil {
					return err
				}
				result, err := mgr.Run(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("pipeline failed (%s): %w", services.ErrorKind(err), err)
				}
				printResult(out, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&ratingFlag, "rating", "", "Initial rating (0-3 or unknown, dislike, like, love)")
	cmd.Flags().BoolVar(&runPipeline, "run", false, "Run the extraction pipeline after creating the recipe")
	return cmd
}
