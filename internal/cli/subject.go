package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lazypower/rhythm/internal/model"
	"github.com/spf13/cobra"
)

const cliTimeout = 30 * time.Second

var (
	subjectSecondary  string
	subjectIntentions []string
	subjectEdges      []string
)

var subjectCmd = &cobra.Command{
	Use:   "subject",
	Short: "Manage subjects",
}

var subjectCreateCmd = &cobra.Command{
	Use:   "create <id> <archetype>",
	Short: "Register a subject with a primary archetype",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
		defer cancel()
		s, err := a.engine.CreateSubject(ctx, model.Subject{
			ID:          args[0],
			Primary:     model.Archetype(strings.ToLower(args[1])),
			Secondary:   model.Archetype(strings.ToLower(subjectSecondary)),
			Intentions:  subjectIntentions,
			GrowthEdges: subjectEdges,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s)
	},
}

var subjectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the subject aggregate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
		defer cancel()
		p, err := a.engine.LoadProfile(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

var rhythmCmd = &cobra.Command{
	Use:   "rhythm <subject>",
	Short: "Recompute and print a subject's rhythm profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
		defer cancel()
		p, err := a.engine.ComputeRhythmProfile(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), p)
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice <subject>",
	Short: "Curate one practice for a subject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
		defer cancel()
		p, err := a.engine.CuratePractice(ctx, args[0])
		if err != nil {
			return err
		}
		printPractice(cmd.OutOrStdout(), p)
		return nil
	},
}

func printPractice(w io.Writer, p model.Practice) {
	fmt.Fprintf(w, "%s (%d min, %s energy, %s)\n", p.Title, p.Duration, p.Energy, p.Modality)
	if p.Description != "" {
		fmt.Fprintf(w, "%s\n", p.Description)
	}
	fmt.Fprintln(w)
	for i, step := range p.Instructions {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	if p.IntegrationPrompt != "" {
		fmt.Fprintf(w, "\n%s\n", p.IntegrationPrompt)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	subjectCreateCmd.Flags().StringVar(&subjectSecondary, "secondary", "", "Secondary archetype")
	subjectCreateCmd.Flags().StringSliceVar(&subjectIntentions, "intention", nil, "Intention (repeatable)")
	subjectCreateCmd.Flags().StringSliceVar(&subjectEdges, "growth-edge", nil, "Growth edge (repeatable)")

	subjectCmd.AddCommand(subjectCreateCmd)
	subjectCmd.AddCommand(subjectShowCmd)
}
