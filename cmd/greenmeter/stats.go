package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/greenmeter/pkg/models"
	"github.com/spf13/cobra"
)

var (
	statsLimit int
	statsPut   models.DailyStat
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "List stored daily aggregates",
	Long: `Displays the per-day aggregates kept in the database, newest first.
The aggregates are produced by an external job and stored with 'stats put'.`,
	RunE: runStats,
}

var statsPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Store the aggregates for one day",
	Long:  `Inserts or replaces the daily aggregate row for --day.`,
	RunE:  runStatsPut,
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 0, "maximum number of days to show (0 = 60)")

	statsPutCmd.Flags().StringVar(&statsPut.Day, "day", "", "day in YYYY-MM-DD format (required)")
	statsPutCmd.Flags().Float64Var(&statsPut.KWh, "kwh", 0, "energy used that day in kWh")
	statsPutCmd.Flags().Float64Var(&statsPut.Cost, "cost", 0, "cost of the day's energy")
	statsPutCmd.Flags().Float64Var(&statsPut.BaselineCost, "baseline-cost", 0, "baseline cost for comparison")
	statsPutCmd.Flags().Float64Var(&statsPut.Projected30dCost, "projected-cost", 0, "projected 30-day cost")
	statsPutCmd.Flags().Float64Var(&statsPut.Projected30dCostBaseline, "projected-baseline", 0, "projected 30-day baseline cost")
	statsPutCmd.Flags().Float64Var(&statsPut.Projected30dSavings, "projected-savings", 0, "projected 30-day savings")
	statsPutCmd.MarkFlagRequired("day")

	statsCmd.AddCommand(statsPutCmd)
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	stats, err := db.ListDailyStats(statsLimit)
	if err != nil {
		return fmt.Errorf("listing daily stats: %w", err)
	}

	if len(stats) == 0 {
		fmt.Println("No daily stats found")
		return nil
	}

	fmt.Println("--------------------------------------------------------------------")
	fmt.Printf("%-12s  %8s  %8s  %8s  %10s  %10s\n", "Day", "kWh", "Cost", "Baseline", "30d Cost", "30d Saved")
	fmt.Println("--------------------------------------------------------------------")

	var totalKWh, totalCost float64
	for _, s := range stats {
		fmt.Printf("%-12s  %8.2f  %8.2f  %8.2f  %10.2f  %10.2f\n",
			s.Day, s.KWh, s.Cost, s.BaselineCost, s.Projected30dCost, s.Projected30dSavings)
		totalKWh += s.KWh
		totalCost += s.Cost
	}

	fmt.Println("--------------------------------------------------------------------")
	fmt.Printf("Total: %.2f kWh, %.2f cost (%d days)\n", totalKWh, totalCost, len(stats))
	return nil
}

func runStatsPut(cmd *cobra.Command, args []string) error {
	if _, err := time.Parse("2006-01-02", statsPut.Day); err != nil {
		return fmt.Errorf("invalid --day %q (use YYYY-MM-DD)", statsPut.Day)
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.UpsertDailyStat(statsPut); err != nil {
		return err
	}

	fmt.Printf("✓ Stored stats for %s (%.2f kWh)\n", statsPut.Day, statsPut.KWh)
	return nil
}
