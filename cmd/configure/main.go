package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ticvision/ticvision/cmd/configure/commands"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	v := commands.NewViper()
	rootCmd := &cobra.Command{
		Use:           "ticvision-configure",
		Short:         "Configuration tool for the TicVision API",
		Long:          "CLI tool for configuring identity providers, CORS and rate limits. Also exports reports and reconciles category summaries.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	commands.BindRootFlags(rootCmd, v)

	rootCmd.AddCommand(commands.NewOIDCCmd(v))
	rootCmd.AddCommand(commands.NewCorsCmd(v))
	rootCmd.AddCommand(commands.NewRatelimitCmd(v))
	rootCmd.AddCommand(commands.NewReportCmd(v))
	rootCmd.AddCommand(commands.NewReconcileCmd(v))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
