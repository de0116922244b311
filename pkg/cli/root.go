// Package cli implements the casetime commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/harrisonrobin/casetime/pkg/auth"
	"github.com/harrisonrobin/casetime/pkg/config"
	"github.com/harrisonrobin/casetime/pkg/sheets"
	"github.com/harrisonrobin/casetime/pkg/store"
	"github.com/harrisonrobin/casetime/pkg/tracker"
	"github.com/spf13/cobra"
)

var (
	configPath    string
	spreadsheetID string
	sheetName     string
)

// errReported marks failures whose message was already printed.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "casetime",
	Short: "Track time on cases and sync it to Google Sheets",
	Long: `casetime tracks time spent on tasks identified by a case number.
Timers run locally; 'casetime sync' writes the accumulated time to a Google Sheet.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, styleError.Render("Error: ")+err.Error())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/casetime/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&spreadsheetID, "spreadsheet", "", "spreadsheet ID (overrides config)")
	rootCmd.PersistentFlags().StringVar(&sheetName, "sheet", "", "sheet name (overrides config)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(deleteAllCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(syncCmd)
}

// loadConfig reads the config file and applies the flag overrides. It is the
// only place configuration is resolved.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if spreadsheetID != "" {
		cfg.SpreadsheetID = spreadsheetID
	}
	if sheetName != "" {
		cfg.SheetName = sheetName
	}
	return cfg, nil
}

type app struct {
	cfg     *config.Config
	store   *store.TaskStore
	tracker *tracker.Tracker
}

// openApp wires config, the task store and, when needed, the Sheets gateway.
// On first use (no local snapshot yet) the task list is seeded from the sheet.
func openApp(ctx context.Context, remote bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Path(cfg.StateFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open task state: %w", err)
	}

	firstUse := !st.Exists() && cfg.SpreadsheetID != ""
	var gateway sheets.Gateway
	if remote || firstUse {
		gateway, err = newGateway(ctx, cfg)
		if err != nil {
			if remote {
				return nil, err
			}
			log.Printf("Warning: could not connect to the sheet to seed tasks: %v", err)
		}
	}

	var opts []tracker.Option
	if timeout, err := cfg.Timeout(); err == nil {
		opts = append(opts, tracker.WithTimeout(timeout))
	}
	a := &app{
		cfg:   cfg,
		store: st,
		tracker: tracker.New(st, gateway, tracker.Target{
			SpreadsheetID: cfg.SpreadsheetID,
			SheetName:     cfg.SheetName,
		}, opts...),
	}

	if firstUse && gateway != nil {
		res, _ := a.tracker.Load(ctx)
		if !res.OK {
			log.Printf("Warning: failed to load tasks from the sheet: %s", res.Message)
		}
	}
	return a, nil
}

func newGateway(ctx context.Context, cfg *config.Config) (sheets.Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	httpClient, err := auth.NewHTTPClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	client, err := sheets.NewClient(ctx, httpClient, cfg.ValueInputOption)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// save persists the session so running timers survive between invocations.
func (a *app) save() error {
	if err := a.store.Save(); err != nil {
		return fmt.Errorf("failed to save task state: %w", err)
	}
	return nil
}

// report prints a remote operation result and converts a failure into an exit status.
func report(res tracker.Result) error {
	if !res.OK {
		fmt.Println(styleError.Render(res.Message))
		return errReported
	}
	fmt.Println(styleSuccess.Render(res.Message))
	return nil
}
