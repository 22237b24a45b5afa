package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/semaphore"

	"simfleet/cmd/simfleet/ui"
	"simfleet/internal/api"
	"simfleet/internal/config"
	"simfleet/internal/logging"
	"simfleet/internal/types"
)

// Version is stamped at build time.
var Version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string

	// fleet flags
	filterCity   string
	filterStatus string
	filterSearch string
	filterRisk   string

	// action flags
	actionReason string
	actionActor  string

	// Logger for non-interactive commands
	logger *zap.Logger

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "simfleet",
	Short: "simfleet - SIM fleet management client",
	Long: `simfleet is a terminal client for managing a fleet of SIM cards.

It lists the fleet with per-card risk assessments, supports reactive
filtering by status, city, risk level and free-text search, and runs
audited lifecycle actions (suspend, activate, terminate, resetProfile).

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if home, herr := os.UserHomeDir(); herr == nil {
			if lerr := logging.Initialize(home); lerr != nil {
				fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", lerr)
			}
		}

		// Interactive mode has its own UI; skip the console logger.
		if cmd.Use == "simfleet" && cmd.CalledAs() == "simfleet" {
			return nil
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive client
		watcher, err := config.NewWatcher(resolveConfigPath(), nil)
		if err == nil {
			if werr := watcher.Start(context.Background()); werr == nil {
				defer watcher.Stop()
			}
		}
		return runInteractive(cfg)
	},
}

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "List the SIM fleet as a table",
	Long: `Fetches the fleet and prints it with risk assessments.

Filters compose; a card must match all of them:
  simfleet fleet --city Istanbul --status active --risk high --search tracker`,
	RunE: runFleet,
}

var riskCmd = &cobra.Command{
	Use:   "risk [simId]",
	Short: "Show the risk assessment for one SIM",
	Args:  cobra.ExactArgs(1),
	RunE:  runRisk,
}

var actionCmd = &cobra.Command{
	Use:   "action [kind] [simId...]",
	Short: "Run a lifecycle action on one or more SIMs",
	Long: `Submits a bulk action. Kinds: suspend, activate, terminate, resetProfile.
A reason is required and every submission is audited.

Example:
  simfleet action suspend 1042 1043 --reason "roaming abuse"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAction,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the simfleet version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("simfleet %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.simfleet/config.yaml)")

	fleetCmd.Flags().StringVar(&filterCity, "city", "", "Only cards in this city")
	fleetCmd.Flags().StringVar(&filterStatus, "status", "", "Only cards with this status (active|suspended|blocked|terminated)")
	fleetCmd.Flags().StringVar(&filterSearch, "search", "", "Free-text match on id, device, city or plan")
	fleetCmd.Flags().StringVar(&filterRisk, "risk", "", "Only cards at this risk level (low|medium|high)")

	actionCmd.Flags().StringVar(&actionReason, "reason", "", "Reason for the action (required)")
	actionCmd.Flags().StringVar(&actionActor, "actor", "", "Acting operator (default: OS user)")
	_ = actionCmd.MarkFlagRequired("reason")

	rootCmd.AddCommand(fleetCmd)
	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// newAPIClient builds a client from config. Non-interactive commands need
// a token in the config file or SIMFLEET_API_TOKEN.
func newAPIClient() (*api.Client, error) {
	if cfg.API.Token == "" {
		return nil, fmt.Errorf("no API token: set api.token in %s or SIMFLEET_API_TOKEN", resolveConfigPath())
	}
	return api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.GetAPITimeout(),
	}), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()
	return ctx, cancel
}

func runFleet(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	criteria := types.FilterCriteria{
		SearchText: filterSearch,
		Status:     types.SIMStatus(strings.ToLower(filterStatus)),
		City:       filterCity,
	}
	if filterRisk != "" {
		criteria.RiskLevel = types.RiskLevel(strings.ToLower(filterRisk))
	}

	logger.Debug("Fetching fleet", zap.String("base_url", cfg.API.BaseURL))
	cards, err := client.GetFleet(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch fleet: %w", err)
	}

	risks := fetchAssessments(ctx, client, cards)

	table := ui.NewSimpleTable("SIM Fleet", []string{"SIM ID", "Status", "City", "Device", "Plan", "Risk", "Anomalies"})
	shown := 0
	for _, card := range cards {
		risk := risks[card.SimID]
		if !criteria.Matches(card, risk) {
			continue
		}
		riskCell, anomalyCell := "-", ""
		if risk != nil {
			riskCell = string(risk.RiskLevel)
			anomalyCell = strconv.Itoa(risk.AnomalyCount)
		}
		table.AddRow(card.IDString(), string(card.Status), card.City, card.DeviceType, card.PlanName(), riskCell, anomalyCell)
		shown++
	}

	fmt.Print(table.View(ui.DefaultStyles()))
	fmt.Printf("%d of %d SIMs\n", shown, len(cards))
	return nil
}

// fetchAssessments pulls risk for every card with bounded concurrency.
// Failures leave the card unassessed, same as the interactive client.
func fetchAssessments(ctx context.Context, client *api.Client, cards []types.SIMCard) map[int64]*types.RiskAssessment {
	limit := int64(cfg.Enrichment.MaxConcurrent)
	if limit <= 0 {
		limit = 8
	}
	sem := semaphore.NewWeighted(limit)

	type result struct {
		simID int64
		risk  *types.RiskAssessment
	}
	results := make(chan result, len(cards))

	for _, card := range cards {
		if err := sem.Acquire(ctx, 1); err != nil {
			results <- result{simID: card.SimID}
			continue
		}
		go func(simID int64) {
			defer sem.Release(1)
			risk, err := client.GetRiskAssessment(ctx, simID)
			if err != nil {
				logger.Debug("Risk fetch failed", zap.Int64("sim_id", simID), zap.Error(err))
				results <- result{simID: simID}
				return
			}
			results <- result{simID: simID, risk: risk}
		}(card.SimID)
	}

	risks := make(map[int64]*types.RiskAssessment, len(cards))
	for range cards {
		r := <-results
		if r.risk != nil {
			risks[r.simID] = r.risk
		}
	}
	return risks
}

func runRisk(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	simID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid SIM id %q", args[0])
	}

	client, cerr := newAPIClient()
	if cerr != nil {
		return cerr
	}

	risk, err := client.GetRiskAssessment(ctx, simID)
	if err != nil {
		return fmt.Errorf("failed to fetch risk assessment: %w", err)
	}
	if risk == nil {
		fmt.Printf("SIM %d: no assessment available\n", simID)
		return nil
	}

	table := ui.NewSimpleTable(fmt.Sprintf("Risk for SIM %d", simID), []string{"Level", "Anomalies"})
	table.AddRow(string(risk.RiskLevel), strconv.Itoa(risk.AnomalyCount))
	fmt.Print(table.View(ui.DefaultStyles()))
	return nil
}

func runAction(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	kind, err := types.ParseActionKind(args[0])
	if err != nil {
		return err
	}

	simIDs := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, perr := strconv.ParseInt(arg, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid SIM id %q", arg)
		}
		simIDs = append(simIDs, id)
	}

	reason := strings.TrimSpace(actionReason)
	if reason == "" {
		return fmt.Errorf("a non-empty --reason is required")
	}

	actor := actionActor
	if actor == "" {
		if u, uerr := user.Current(); uerr == nil {
			actor = u.Username
		} else {
			actor = "unknown"
		}
	}

	client, cerr := newAPIClient()
	if cerr != nil {
		return cerr
	}

	req := types.BulkActionRequest{
		SimIDs: simIDs,
		Action: kind,
		Reason: reason,
		Actor:  actor,
	}

	logger.Info("Submitting action",
		zap.String("action", string(kind)),
		zap.Int64s("sim_ids", simIDs),
		zap.String("actor", actor))
	requestID := uuid.New().String()
	logging.RecordAction(logging.AuditActionSubmit, actor, requestID, simIDs, string(kind), reason, "", false)

	resp, err := client.PerformBulkAction(ctx, req)
	if err != nil {
		logging.RecordAction(logging.AuditActionError, actor, requestID, simIDs, string(kind), reason, err.Error(), false)
		return fmt.Errorf("action failed: %w", err)
	}
	if !resp.Status {
		msg := resp.FirstMessage("Action rejected")
		logging.RecordAction(logging.AuditActionRejected, actor, requestID, simIDs, string(kind), reason, msg, false)
		return fmt.Errorf("%s", msg)
	}

	logging.RecordAction(logging.AuditActionAccepted, actor, requestID, simIDs, string(kind), reason, "", true)
	fmt.Println(resp.FirstMessage("Action completed"))
	return nil
}
