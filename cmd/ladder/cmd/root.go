package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ladder",
	Short: "Laddered take-profit backtester for US equities",
	Long: `Ladder replays historical bars through a take-profit ladder strategy.

Once per trading day it buys a fixed dollar amount of a symbol, splits the
shares into ten sell orders priced one increment apart above the buy, and
fills each order when a later bar's high reaches it.

It provides tools for:
  - Backtesting a symbol with an optional QQQ-style trend filter
  - Sweeping buy times across the session to find the best entry
  - Journaling trades, daily values and run summaries to CSV or SQLite
  - Downloading bars from Alpaca into the CSV data directory

Alpaca credentials are read from APCA_API_KEY_ID and APCA_API_SECRET_KEY,
or from a .env file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	},
}

var (
	cfgFile string
	envFile string
	quiet   bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); flags override its values")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with Alpaca credentials")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-trade BUY/SELL/SKIPPED lines")
}

// progressLog reports what a command is doing on stderr.
func progressLog(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "", 0)
}

// tradeLog carries the engine's per-trade lines unless --quiet is set.
func tradeLog(cmd *cobra.Command) *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.OutOrStdout(), "", 0)
}
