package cmd

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/internal/config"
	"github.com/gaze-network/token-sale/pkg/middleware/requestcontext"
	"github.com/spf13/cobra"
)

type tokenCmdOptions struct {
	Address string
	TTL     time.Duration
}

func NewTokenCommand() *cobra.Command {
	opts := &tokenCmdOptions{}

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue an API bearer token acting as an address",
		Example: `tokensale token --address 0x00000000000000000000000000000000000000aa --ttl 24h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tokenHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Address, "address", "", "Caller address (0x-prefixed hex)")
	flags.DurationVar(&opts.TTL, "ttl", time.Hour, "Token lifetime")

	return cmd
}

func tokenHandler(opts *tokenCmdOptions, cmd *cobra.Command, _ []string) error {
	secret := config.Load().API.JWTSecret
	if secret == "" {
		return errors.Wrap(errs.InvalidArgument, "api.jwt_secret is not configured")
	}
	if opts.TTL <= 0 {
		return errors.Wrap(errs.InvalidArgument, "--ttl must be positive")
	}
	caller, err := common.NewAddressFromHex(opts.Address)
	if err != nil {
		return errors.Wrap(err, "invalid --address")
	}

	token, err := requestcontext.NewCallerToken([]byte(secret), caller, time.Now(), opts.TTL)
	if err != nil {
		return errors.Wrap(err, "can't sign token")
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
