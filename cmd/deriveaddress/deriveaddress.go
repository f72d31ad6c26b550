// Package deriveaddress exposes the relayer address derivation as a
// standalone CLI operation, for operators bootstrapping a fresh deployment
// before any admin principal exists to call the HTTP admin API with.
package deriveaddress

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/humandebri/jpycpay/internal/codec"
	"github.com/humandebri/jpycpay/internal/relaycfg"
	"github.com/humandebri/jpycpay/internal/signer"
)

// New returns the "derive-address" subcommand.
func New() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "derive-address",
		Short: "Derive the relayer's EVM address from the signer oracle's public key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), path)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "derivation path (defaults to the configured JPYCPAY_ECDSA_DERIVATION_PATH)")

	return cmd
}

func run(ctx context.Context, path string) error {
	env, err := relaycfg.Load()
	if err != nil {
		return errors.Wrap(err, "derive-address: load config")
	}
	if path == "" {
		path = pathJoin(env.InitialStore.EcdsaDerivationPath)
	}

	oracle := signer.NewHTTPOracle(env.OracleBaseURL, nil)
	pubkey, err := oracle.PublicKey(ctx, path)
	if err != nil {
		return errors.Wrap(err, "derive-address: fetch public key")
	}

	addrBytes, err := codec.AddressFromUncompressedPubkey(pubkey)
	if err != nil {
		return errors.Wrap(err, "derive-address: derive address")
	}

	fmt.Println(common.Address(addrBytes).Hex())
	return nil
}

func pathJoin(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}
