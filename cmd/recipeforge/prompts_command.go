package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"recipeforge/internal/prompts"
)

func newPromptsCommand(ctx *commandContext) *cobra.Command {
	promptsCmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect stage prompts",
	}

	var showSource bool
	show := &cobra.Command{
		Use:   "show TYPE",
		Short: "Print the prompt used for a stage (extract, thumbnail, marketing)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			promptType, ok := prompts.ParseType(args[0])
			if !ok {
				names := make([]string, 0, len(prompts.AllTypes()))
				for _, t := range prompts.AllTypes() {
					names = append(names, string(t))
				}
				return fmt.Errorf("unknown prompt type %q (expected one of %s)", args[0], strings.Join(names, ", "))
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			library, err := prompts.New(cfg.Prompts.Dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if showSource {
				fmt.Fprintf(out, "# source: %s\n", library.Source(promptType))
			}
			fmt.Fprintln(out, strings.TrimRight(library.Get(promptType), "\n"))
			return nil
		},
	}
	show.Flags().BoolVar(&showSource, "source", false, "Print where the prompt was loaded from")

	promptsCmd.AddCommand(show)
	return promptsCmd
}
