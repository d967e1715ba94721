package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"recipeforge/internal/config"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
)

type recipeView struct {
	Info   *recipes.Record `json:"info"`
	Recipe *recipes.Recipe `json:"recipe,omitempty"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a recipe's record and structured data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withRepository(cmd.Context(), func(_ *config.Config, repo *recipes.Repository) error {
				record, err := repo.LoadInfo(cmd.Context(), id)
				if err != nil {
					return err
				}
				view := recipeView{Info: record}
				recipe, err := repo.GetRecipe(cmd.Context(), id)
				switch {
				case err == nil:
					view.Recipe = recipe
				case errors.Is(err, services.ErrNotFound):
				default:
					return err
				}

				if asJSON {
					return writeJSON(cmd, view)
				}
				renderRecipe(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderRecipe(out io.Writer, view recipeView) {
	info := view.Info
	fmt.Fprintf(out, "ID:          %s\n", info.ID)
	fmt.Fprintf(out, "Name:        %s\n", valueOrDash(info.Name))
	fmt.Fprintf(out, "Status:      %s\n", info.CurrentStatus())
	if info.FailedStage != "" {
		fmt.Fprintf(out, "Failed:      %s: %s\n", info.FailedStage, info.LastError)
	}
	fmt.Fprintf(out, "Rating:      %s\n", info.Rating)
	fmt.Fprintf(out, "Created:     %s\n", info.Created.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Originals:   %d\n", len(info.OriginalImages))
	fmt.Fprintf(out, "Thumbnail:   %s\n", yesNo(info.HasThumbnail()))
	if info.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", info.Description)
	}

	recipe := view.Recipe
	if recipe == nil {
		return
	}
	if author := recipe.AuthorName(); author != "" {
		fmt.Fprintf(out, "Author:      %s\n", author)
	}
	if recipe.TotalTime != "" {
		fmt.Fprintf(out, "Total time:  %s\n", recipe.TotalTime)
	}
	if recipe.RecipeYield != "" {
		fmt.Fprintf(out, "Yield:       %s\n", recipe.RecipeYield)
	}
	if keywords := recipe.Keywords(); len(keywords) > 0 {
		fmt.Fprintf(out, "Keywords:    %s\n", strings.Join(keywords, ", "))
	}
	if len(recipe.Ingredients) > 0 {
		fmt.Fprintln(out, "\nIngredients:")
		for _, ingredient := range recipe.Ingredients {
			fmt.Fprintf(out, "  - %s\n", ingredient)
		}
	}
	for _, section := range recipe.Instructions {
		title := strings.TrimSpace(section.Name)
		if title == "" {
			title = "Instructions"
		}
		fmt.Fprintf(out, "\n%s:\n", title)
		for i, step := range section.Steps {
			fmt.Fprintf(out, "  %d. %s\n", i+1, step.Text)
		}
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRepository(cmd.Context(), func(_ *config.Config, repo *recipes.Repository) error {
				ids, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				records := make([]*recipes.Record, 0, len(ids))
				for _, id := range ids {
					record, err := repo.LoadInfo(cmd.Context(), id)
					if errors.Is(err, services.ErrNotFound) {
						continue
					}
					if err != nil {
						return err
					}
					records = append(records, record)
				}

				if asJSON {
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No recipes stored")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.ID,
						valueOrDash(record.Name),
						string(record.CurrentStatus()),
						record.Rating.String(),
						record.Created.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "ID"},
					{header: "Name", maxWidth: 40},
					{header: "Status"},
					{header: "Rating"},
					{header: "Created"},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
