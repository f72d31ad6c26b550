// Package cmd wires the relayd CLI: a cobra root command with serve,
// derive-address, and migrate-log subcommands, grounded on
// SafeMPC-mpc-signer's cmd/root.go (thin root, subcommands in their own
// packages, zerolog for startup failures).
package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/humandebri/jpycpay/cmd/deriveaddress"
	"github.com/humandebri/jpycpay/cmd/migratelog"
	"github.com/humandebri/jpycpay/cmd/serve"
)

var rootCmd = &cobra.Command{
	Use:   "relayd",
	Short: "JPYC gasless relay daemon",
	Long: `relayd

A stateless gasless relay for EIP-3009 transferWithAuthorization transfers.
Configuration is read entirely from the environment; see internal/relaycfg.`,
}

// Execute runs the root command, exiting non-zero on failure. Called once
// from cmd/relayd/main.go.
func Execute() {
	rootCmd.AddCommand(
		serve.New(),
		deriveaddress.New(),
		migratelog.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("relayd: command failed")
		os.Exit(1)
	}
}
