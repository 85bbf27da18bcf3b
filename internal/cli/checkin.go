package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lazypower/rhythm/internal/client"
	"github.com/lazypower/rhythm/internal/model"
	"github.com/spf13/cobra"
)

// Check-ins and the digest go through a running server so they never
// contend with it for the database.

var (
	serverURL string

	momentCategory string
	momentContext  string
	momentSeeds    []string
	momentEmotions map[string]int
	momentAt       string
)

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record moments and state through a running server",
}

var checkinMomentCmd = &cobra.Command{
	Use:   "moment <subject> <essence...>",
	Short: "Record a moment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := model.Moment{
			Category: model.Category(strings.ToLower(momentCategory)),
			Essence:  strings.Join(args[1:], " "),
			Context:  momentContext,
			Seeds:    momentSeeds,
			Emotions: momentEmotions,
		}
		if momentAt != "" {
			t, err := time.Parse(time.RFC3339, momentAt)
			if err != nil {
				return fmt.Errorf("--at must be RFC3339: %w", err)
			}
			m.OccurredAt = t
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
		defer cancel()
		saved, err := client.New(serverURL).RecordMoment(ctx, args[0], m)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %s %s at %s\n", saved.Category, saved.ID, saved.OccurredAt.Format(time.RFC3339))
		return nil
	},
}

var checkinStateCmd = &cobra.Command{
	Use:   "state <subject> <clarity> <peace> <vitality> <connection> <purpose>",
	Short: "Record a state vector",
	Args:  cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		vals := make([]int, 5)
		for i, raw := range args[1:] {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: not a number: %q", model.AllDimensions()[i], raw)
			}
			vals[i] = n
		}
		v := model.StateVector{
			Clarity:    vals[0],
			Peace:      vals[1],
			Vitality:   vals[2],
			Connection: vals[3],
			Purpose:    vals[4],
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
		defer cancel()
		saved, err := client.New(serverURL).RecordState(ctx, args[0], v)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recorded state %.1f overall\n", saved.Overall())
		return nil
	},
}

var digestCmd = &cobra.Command{
	Use:   "digest <subject>",
	Short: "Print the subject digest from a running server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
		defer cancel()
		d, err := client.New(serverURL).Digest(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d)
		return nil
	},
}

func init() {
	checkinCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Server URL (default $RHYTHM_URL or http://127.0.0.1:37778)")
	digestCmd.Flags().StringVar(&serverURL, "url", "", "Server URL (default $RHYTHM_URL or http://127.0.0.1:37778)")

	checkinMomentCmd.Flags().StringVarP(&momentCategory, "category", "c", string(model.CategoryInsight), "Moment category")
	checkinMomentCmd.Flags().StringVar(&momentContext, "context", "", "Longer context")
	checkinMomentCmd.Flags().StringSliceVar(&momentSeeds, "seed", nil, "Seed tag (repeatable)")
	checkinMomentCmd.Flags().StringToIntVar(&momentEmotions, "emotion", nil, "Emotion intensity, e.g. joy=7")
	checkinMomentCmd.Flags().StringVar(&momentAt, "at", "", "When it happened, RFC3339 (default now)")

	checkinCmd.AddCommand(checkinMomentCmd)
	checkinCmd.AddCommand(checkinStateCmd)
}
