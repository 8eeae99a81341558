package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:           "r7",
	Short:         "cli for logsearch, asm, web / net vulns on Rapid7",
	Long:          `r7 talks to the Rapid7 Insight platform: log search, investigations, the asset surface graph, appsec scans, InsightVM and InsightConnect.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

// Global flags available on every command.
var (
	flagAPIKey  string
	flagRegion  string
	flagOrgID   string
	flagVerbose bool
	flagOutput  string
	flagNoCache bool
)

// Execute runs the CLI. A SIGINT or SIGTERM cancels the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func initLogging() {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	// Logs go to stderr so stdout stays pipeable. Pretty output only on a
	// terminal.
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = log.Output(os.Stderr)
	}
}

func init() {
	// A .env in the working directory can carry R7_API_KEY and friends.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Rapid7 API key (or use keychain/R7_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagRegion, "region", "", "API region (us, eu, ca, ap, au)")
	rootCmd.PersistentFlags().StringVar(&flagOrgID, "org-id", "", "Organization ID for RRN reconstruction")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output format (simple, table, json)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
}
