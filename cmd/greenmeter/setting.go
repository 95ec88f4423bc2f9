package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Read or write stored settings",
	Long:  `Reads and writes the key/value settings kept in the database.`,
}

var settingGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingGet,
}

var settingSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingSet,
}

func init() {
	settingCmd.AddCommand(settingGetCmd, settingSetCmd)
	rootCmd.AddCommand(settingCmd)
}

func runSettingGet(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	value, ok, err := db.GetSetting(args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("setting %s not found", args[0])
	}

	fmt.Println(value)
	return nil
}

func runSettingSet(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.SetSetting(args[0], args[1]); err != nil {
		return err
	}

	fmt.Printf("✓ %s = %s\n", args[0], args[1])
	return nil
}
