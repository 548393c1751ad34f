// Command lotteryctl runs maintenance tasks against the configured store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "lotteryctl",
	Short:         "Lottery ticketing maintenance tools",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", ".", "directory holding config.yaml")
	rootCmd.AddCommand(
		MigrateCmd(),
		ImportTicketsCmd(),
		ReapCmd(),
		CheckCmd(),
		TokenCmd(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
