package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"recipeforge/internal/config"
	"recipeforge/internal/recipes"
	"recipeforge/internal/services"
)

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "thumbnail ID",
		Short: "Write a recipe's generated thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withRepository(cmd.Context(), func(_ *config.Config, repo *recipes.Repository) error {
				data, ok, err := repo.GetThumbnail(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return services.Wrap(services.ErrNotFound, "cli", "thumbnail", "no thumbnail for "+id, nil)
				}
				return writeBlob(cmd, outputPath, data)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (defaults to stdout)")
	return cmd
}

type originalPayload struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

func newOriginalCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var asBase64 bool

	cmd := &cobra.Command{
		Use:   "original ID INDEX",
		Short: "Write one of a recipe's original photographs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			index, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil || index < 0 {
				return fmt.Errorf("invalid image index %q", args[1])
			}
			return ctx.withRepository(cmd.Context(), func(_ *config.Config, repo *recipes.Repository) error {
				data, contentType, err := repo.GetOriginal(cmd.Context(), id, index)
				if err != nil {
					return err
				}
				if asBase64 {
					return writeJSON(cmd, originalPayload{
						ContentType: contentType,
						Data:        base64.StdEncoding.EncodeToString(data),
					})
				}
				return writeBlob(cmd, outputPath, data)
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file (defaults to stdout)")
	cmd.Flags().BoolVar(&asBase64, "base64", false, "Print {contentType, data} JSON with base64 data")
	return cmd
}

func newFindCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "find ID PREFIX",
		Short: "List a recipe's stored blobs whose key starts with PREFIX",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withRepository(cmd.Context(), func(_ *config.Config, repo *recipes.Repository) error {
				found, err := repo.Find(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(found) == 0 {
					fmt.Fprintln(out, "No matching blobs")
					return nil
				}
				keys := make([]string, 0, len(found))
				for key := range found {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				rows := make([][]string, 0, len(keys))
				for _, key := range keys {
					rows = append(rows, []string{key, recipes.ContentTypeForKey(key), strconv.Itoa(len(found[key]))})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Key"},
					{header: "Type"},
					{header: "Bytes", right: true},
				}, rows))
				return nil
			})
		},
	}
}

func newRateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rate ID RATING",
		Short: "Set a recipe's rating (0-3 or unknown, dislike, like, love)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			rating, ok := recipes.ParseRating(args[1])
			if !ok {
				return fmt.Errorf("invalid rating %q", args[1])
			}
			return ctx.withRepository(cmd.Context(), func(_ *config.Config, repo *recipes.Repository) error {
				if err := repo.SetRating(cmd.Context(), id, rating); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rated %s as %s\n", id, rating)
				return nil
			})
		},
	}
}

func writeBlob(cmd *cobra.Command, outputPath string, data []byte) error {
	target := strings.TrimSpace(outputPath)
	if target == "" || target == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return err
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", expanded, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", len(data), expanded)
	return nil
}
