package cmd

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/ladder/feed"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <symbol>...",
	Short: "Download bars into the CSV data directory",
	Long: `Fetch downloads bars from the configured source (Alpaca by default)
and saves them as <dir>/<SYMBOL>_<interval>.csv, the layout the csv source
reads. Interval limits and the daily fallback apply as they do for a
backtest, so the saved interval may differ from the one requested.

Example:
  ladder fetch TQQQ QQQ --start 2024-01-01 --interval 1h --out ./data`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

var (
	fetchFlags runFlags
	fetchOut   string
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchFlags.register(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "./data", "directory to write CSV files to")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &fetchFlags)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("source") && cfgFile == "" {
		cfg.Data.Source = "alpaca"
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("data source: %w", err)
	}

	logger := progressLog(cmd)
	fetcher := feed.NewFetcher(src, logger)
	dst := feed.CSVSource{Dir: fetchOut}
	for _, sym := range args {
		sym = strings.ToUpper(sym)
		res, err := fetcher.Fetch(cmd.Context(), feed.Request{
			Symbol:   sym,
			Start:    params.Start,
			End:      params.End,
			Interval: params.Interval,
		})
		if err != nil {
			return fmt.Errorf("fetch %s: %w", sym, err)
		}
		path, err := dst.SaveCSV(sym, res.Interval, res.Bars)
		if err != nil {
			return fmt.Errorf("save %s: %w", sym, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d %s bars %s..%s -> %s\n",
			sym, len(res.Bars), res.Interval, res.Start, res.End, path)
		if res.FellBack {
			logger.Printf("%s: intraday data unavailable, saved daily bars", sym)
		}
	}
	return nil
}
