// Package stats implements the offline statistics command.
package stats

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calorietrack/calorietrack-go/internal/analytics"
	"github.com/calorietrack/calorietrack-go/internal/conf"
	"github.com/calorietrack/calorietrack-go/internal/datastore"
)

// Command returns the stats subcommand
func Command(settings *conf.Settings) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print prediction statistics for a trailing window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStats(settings, days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of trailing days to aggregate")

	return cmd
}

func printStats(settings *conf.Settings, days int) error {
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer store.Close()

	engine := analytics.New(store)
	stats, err := engine.Statistics(days)
	if err != nil {
		return err
	}

	fmt.Printf("Statistics for the last %d days\n", days)
	fmt.Printf("  Predictions:        %d\n", stats.Count)
	fmt.Printf("  Calories consumed:  %.1f\n", stats.TotalCalories)
	fmt.Printf("  Avg calories:       %.1f\n", stats.AvgCalories)
	fmt.Printf("  Avg processing ms:  %.1f\n", stats.AvgProcessingTimeMs)
	if stats.MostFrequentLabel != "" {
		fmt.Printf("  Most frequent food: %s\n", stats.MostFrequentLabel)
	}
	if len(stats.TopLabels) > 0 {
		fmt.Println("  Top foods:")
		for _, label := range stats.TopLabels {
			fmt.Printf("    %-20s %d\n", label.LabelCanonical, label.Count)
		}
	}

	return nil
}
