package cmd

import (
	"fmt"

	"github.com/rustyeddy/ladder/backtest"
	"github.com/rustyeddy/ladder/feed"
	"github.com/rustyeddy/ladder/journal"
	"github.com/spf13/cobra"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run the ladder strategy over historical bars",
	Long: `Backtest replays bars for one symbol through the ladder strategy and
prints the performance report.

Values come from --config (or the defaults) with any flags applied on top.

Examples:
  ladder backtest --symbol TQQQ --start 2024-01-01 --interval 1h
  ladder backtest -c ladder.yaml --buy-time 13:30 --trend=false
  ladder backtest --source alpaca --start 2024-06-01 --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btFlags  runFlags
	btOrgOut string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	btFlags.register(backtestCmd)
	backtestCmd.Flags().StringVar(&btOrgOut, "org", "", "also write an Org-mode run summary to this file")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &btFlags)
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("data source: %w", err)
	}
	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	logger := progressLog(cmd)
	runner := &backtest.Runner{
		Fetcher:  feed.NewFetcher(src, logger),
		Logger:   logger,
		TradeLog: tradeLog(cmd),
	}

	logger.Printf("Running backtest: %s from %s (capital $%.2f, $%.2f per buy, $%.2f rungs)",
		params.Symbol, params.Start, params.Engine.InitialCapital,
		params.Engine.InvestmentPerBuy, params.Engine.PriceIncrement)
	res, err := runner.Run(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	backtest.PrintReport(cmd.OutOrStdout(), res.Report)

	if err := backtest.Export(j, res); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if cfg.Journal.Type == "csv" || cfg.Journal.Type == "sqlite" {
		logger.Printf("Journaled run %s (%s)", res.RunID, cfg.Journal.Type)
	}
	if btOrgOut != "" {
		if err := journal.WriteRunOrg(btOrgOut, backtest.RunRecord(res)); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
		logger.Printf("Wrote %s", btOrgOut)
	}
	return nil
}
