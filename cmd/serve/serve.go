// Package serve wires every relay collaborator together and runs the HTTP
// server, grounded on chapool-go-wallet's cmd/server wiring (one function
// per collaborator, errors.Wrap at each step, zerolog for startup logging).
package serve

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/humandebri/jpycpay/internal/admin"
	"github.com/humandebri/jpycpay/internal/admission"
	"github.com/humandebri/jpycpay/internal/httpapi"
	"github.com/humandebri/jpycpay/internal/relay"
	"github.com/humandebri/jpycpay/internal/relaycfg"
	"github.com/humandebri/jpycpay/internal/rpcclient"
	"github.com/humandebri/jpycpay/internal/signer"
	"github.com/humandebri/jpycpay/internal/store"
)

// New returns the "serve" subcommand: load env, dial the RPC node, build
// every collaborator, and block serving HTTP.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gasless relay HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	env, err := relaycfg.Load()
	if err != nil {
		return errors.Wrap(err, "serve: load config")
	}

	logger := newLogger(env.LogLevel)

	s := store.New(env.InitialStore)

	rpc, err := rpcclient.New(ctx, env.RPCEndpoint, func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, env.CallTimeout)
	})
	if err != nil {
		return errors.Wrap(err, "serve: dial RPC endpoint")
	}

	oracle := signer.NewHTTPOracle(env.OracleBaseURL, nil)

	admissionChain := admission.New(s, rpc)
	coordinator := relay.New(s, admissionChain, rpc, oracle, logger)
	adminSurface := admin.New(s, rpc, oracle)

	server := httpapi.New(s, coordinator, adminSurface, logger)

	logger.Info().Str("addr", env.ListenAddr).Str("network", env.NetworkLabel).Msg("starting relay")
	if err := server.Run(env.ListenAddr); err != nil {
		return errors.Wrap(err, "serve: http server")
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	return log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}
