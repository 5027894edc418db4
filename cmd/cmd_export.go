package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/internal/config"
	"github.com/gaze-network/token-sale/modules/tokensale"
	"github.com/gaze-network/token-sale/modules/tokensale/snapshot"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

type exportCmdOptions struct {
	Out string
}

func NewExportCommand() *cobra.Command {
	opts := &exportCmdOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Replay the journal and export holders and vesting grants as parquet files",
		Example: `tokensale export --out ./snapshots
tokensale export --config ./config.yaml # uses modules.tokensale.snapshot (S3 bucket or output_dir)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Out, "out", "", "Local output directory. Overrides the configured snapshot store")

	return cmd
}

func exportHandler(opts *exportCmdOptions, cmd *cobra.Command, _ []string) error {
	conf := config.Load().Modules.TokenSale
	ctx := logger.WithContext(cmd.Context(), slogx.String("module", "tokensale"))

	uc, cleanup, err := tokensale.Open(ctx, conf)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if err := cleanup.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to release resources", slogx.Error(err))
		}
	}()

	var store snapshot.Store
	if opts.Out != "" {
		store = snapshot.NewLocalStore(opts.Out)
	} else {
		store, err = tokensale.NewSnapshotStore(ctx, conf.Snapshot)
		if err != nil {
			return errors.Wrap(err, "can't create snapshot store")
		}
	}

	s, err := uc.Snapshot()
	if err != nil {
		return errors.Wrap(err, "can't take snapshot")
	}
	keys, err := snapshot.NewExporter(store).Export(ctx, s)
	if err != nil {
		return errors.Wrap(err, "can't export snapshot")
	}
	for _, key := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), store.Location(key))
	}
	return nil
}
