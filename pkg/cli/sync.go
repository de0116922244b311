package cli

import (
	"fmt"
	"os"

	"github.com/harrisonrobin/casetime/pkg/auth"
	"github.com/harrisonrobin/casetime/pkg/config"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write all tasks to the sheet",
	Long: `Write all tasks to the sheet. Case numbers already in the sheet are
updated in place; new ones are appended. The original start column is
never overwritten once set.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Rebuild the task list from the sheet",
	Args:  cobra.NoArgs,
	RunE:  runLoad,
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Sheets",
	Args:  cobra.NoArgs,
	RunE:  runAuth,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetSheetCmd = &cobra.Command{
	Use:   "set-sheet [spreadsheet-id] [sheet-name]",
	Short: "Set the spreadsheet and sheet tasks are synced to",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConfigSetSheet,
}

func init() {
	configCmd.AddCommand(configSetSheetCmd)
	configCmd.AddCommand(configShowCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	res := a.tracker.Sync(cmd.Context())
	if err := a.save(); err != nil {
		return err
	}
	return report(res)
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	res, _ := a.tracker.Load(cmd.Context())
	if err := a.save(); err != nil {
		return err
	}
	if err := report(res); err != nil {
		return err
	}
	printTasks(os.Stdout, a.tracker.Tasks())
	return nil
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Auth.Mode == config.AuthServiceAccount {
		fmt.Println(styleHint.Render("Service account mode needs no interactive authentication."))
		return nil
	}
	if err := auth.Reauthenticate(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Println(styleSuccess.Render("Authentication successful! Token saved to " + cfg.Path(cfg.Auth.TokenFile)))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rows := [][2]string{
		{"Spreadsheet", cfg.SpreadsheetID},
		{"Sheet", cfg.SheetName},
		{"Auth mode", cfg.Auth.Mode},
		{"Request timeout", cfg.RequestTimeout},
		{"State file", cfg.Path(cfg.StateFile)},
	}
	for _, r := range rows {
		value := r[1]
		if value == "" {
			value = styleHint.Render("(not set)")
		}
		fmt.Printf("%s %s\n", styleLabel.Render(fmt.Sprintf("%-16s", r[0]+":")), styleValue.Render(value))
	}
	return nil
}

func runConfigSetSheet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.SpreadsheetID = args[0]
	if len(args) > 1 {
		cfg.SheetName = args[1]
	}
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Printf("Syncing to sheet '%s' of spreadsheet %s\n", cfg.SheetName, cfg.SpreadsheetID)
	return nil
}
