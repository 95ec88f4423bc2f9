package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/greenmeter/pkg/models"
	"github.com/spf13/cobra"
)

var (
	readingsLimit int
	readingsSince string
	readingsUntil string
)

var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "List archived power readings",
	Long:  `Displays raw power readings stored in the database.`,
	RunE:  runReadings,
}

func init() {
	readingsCmd.Flags().IntVar(&readingsLimit, "limit", 0, "maximum number of readings to show (0 = store default)")
	readingsCmd.Flags().StringVar(&readingsSince, "since", "", "only readings since this date (YYYY-MM-DD or relative like 7d)")
	readingsCmd.Flags().StringVar(&readingsUntil, "until", "", "only readings before this date (YYYY-MM-DD)")
	rootCmd.AddCommand(readingsCmd)
}

func runReadings(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	var data []models.StoredReading
	if readingsSince != "" || readingsUntil != "" {
		start := time.Time{}
		end := time.Now().UTC().AddDate(100, 0, 0)
		if readingsSince != "" {
			if start, err = parseDate(readingsSince); err != nil {
				return fmt.Errorf("parsing --since date: %w", err)
			}
		}
		if readingsUntil != "" {
			if end, err = parseDate(readingsUntil); err != nil {
				return fmt.Errorf("parsing --until date: %w", err)
			}
		}
		data, err = db.ListReadingsBetween(start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), readingsLimit)
	} else {
		data, err = db.ListReadings(readingsLimit)
	}
	if err != nil {
		return fmt.Errorf("listing readings: %w", err)
	}

	if len(data) == 0 {
		fmt.Println("No readings found")
		return nil
	}

	fmt.Println("----------------------------------------------------------")
	fmt.Printf("%-30s  %10s  %s\n", "Timestamp", "Watts", "Age")
	fmt.Println("----------------------------------------------------------")

	var total float64
	for _, r := range data {
		age := "-"
		if t, err := time.Parse(time.RFC3339Nano, r.Timestamp); err == nil {
			age = humanize.Time(t)
		}
		fmt.Printf("%-30s  %10.2f  %s\n", r.Timestamp, r.Watts, age)
		total += r.Watts
	}

	fmt.Println("----------------------------------------------------------")
	fmt.Printf("Average: %.2f W (%s readings)\n", total/float64(len(data)), humanize.Comma(int64(len(data))))
	return nil
}

// parseDate parses a date string in either YYYY-MM-DD format or relative format (e.g., "7d")
func parseDate(dateStr string) (time.Time, error) {
	// Try absolute date format first
	t, err := time.Parse("2006-01-02", dateStr)
	if err == nil {
		return t, nil
	}

	// Try relative format (e.g., "7d" for 7 days ago)
	if len(dateStr) > 1 && dateStr[len(dateStr)-1] == 'd' {
		daysStr := dateStr[:len(dateStr)-1]
		var days int
		if _, err := fmt.Sscanf(daysStr, "%d", &days); err == nil {
			return time.Now().AddDate(0, 0, -days), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD or Nd for N days ago)", dateStr)
}
