package cmd

import (
	"fmt"
	"os"

	"github.com/rustyeddy/ladder/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the SQLite run journal",
	Long: `Query runs and trades recorded by "ladder backtest --db".

Subcommands:
  runs   - List recent runs
  show   - Print a run summary as Org-mode
  trades - List the trades of a run
  trade  - Get details of a specific trade by ID

Examples:
  ladder journal runs
  ladder journal show <run-id> --trades
  ladder journal trade <run-id>-0003`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a run summary as Org-mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var (
	journalDBPath     string
	journalLimit      int
	journalWithTrades bool
	journalOrgOut     string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./ladder.sqlite", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of runs to list, 0 for all")
	journalShowCmd.Flags().BoolVar(&journalWithTrades, "trades", false, "include the trade list")
	journalShowCmd.Flags().StringVarP(&journalOrgOut, "output", "o", "", "write to this file instead of stdout")
}

func openSQLite() (*journal.SQLite, error) {
	if _, err := os.Stat(journalDBPath); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(out, "%-26s %-6s %-4s %-10s %-10s %12s %9s %5s %5s\n",
		"RUN", "SYMBOL", "IV", "START", "END", "FINAL", "RETURN", "BUYS", "SELLS")
	for _, r := range runs {
		fmt.Fprintf(out, "%-26s %-6s %-4s %-10s %-10s %12.2f %+8.2f%% %5d %5d\n",
			r.RunID, r.Symbol, r.Interval, r.Start, r.End, r.FinalValue, r.ReturnPct, r.Buys, r.Sells)
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	s, err := j.ExportRunOrg(cmd.Context(), args[0], journalWithTrades)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	if journalOrgOut != "" {
		return os.WriteFile(journalOrgOut, []byte(s), 0644)
	}
	fmt.Fprint(cmd.OutOrStdout(), s)
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTrades(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}
