package tokensale

import (
	"context"
	"strings"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/core/worker"
	"github.com/gaze-network/token-sale/internal/config"
	"github.com/gaze-network/token-sale/internal/postgres"
	tokensaleapi "github.com/gaze-network/token-sale/modules/tokensale/api"
	tokensaleconfig "github.com/gaze-network/token-sale/modules/tokensale/config"
	"github.com/gaze-network/token-sale/modules/tokensale/datagateway"
	"github.com/gaze-network/token-sale/modules/tokensale/publisher"
	"github.com/gaze-network/token-sale/modules/tokensale/repository/memory"
	tokensalepostgres "github.com/gaze-network/token-sale/modules/tokensale/repository/postgres"
	"github.com/gaze-network/token-sale/modules/tokensale/snapshot"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

const defaultSnapshotDir = "./snapshots"

// Cleanup releases what Open acquired, in reverse order.
type Cleanup []func(context.Context) error

func (c Cleanup) Run(ctx context.Context) error {
	var errList []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}

// New builds the token sale service, mounts its API handlers and returns the worker that exports
// snapshots while the service runs.
func New(injector do.Injector) (*worker.Worker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	moduleConf := conf.Modules.TokenSale

	var publishers []publisher.Publisher
	var cleanup Cleanup
	if moduleConf.NATS.URL != "" {
		natsPublisher, err := publisher.NewNATS(moduleConf.NATS)
		if err != nil {
			return nil, errors.Wrap(err, "can't create NATS publisher")
		}
		cleanup = append(cleanup, func(context.Context) error {
			return errors.WithStack(natsPublisher.Close())
		})
		publishers = append(publishers, natsPublisher)
		logger.InfoContext(ctx, "Publishing events to NATS", slogx.String("url", moduleConf.NATS.URL))
	}
	if moduleConf.Webhook.URL != "" {
		webhookPublisher, err := publisher.NewWebhook(moduleConf.Webhook)
		if err != nil {
			_ = cleanup.Run(ctx)
			return nil, errors.Wrap(err, "can't create webhook publisher")
		}
		publishers = append(publishers, webhookPublisher)
		logger.InfoContext(ctx, "Posting events to webhook")
	}

	uc, ucCleanup, err := Open(ctx, moduleConf, usecase.WithPublisher(publisher.Multi(publishers...)))
	if err != nil {
		_ = cleanup.Run(ctx)
		return nil, errors.WithStack(err)
	}
	cleanup = append(cleanup, ucCleanup...)

	// Mount API
	apiHandlers := lo.Uniq(moduleConf.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			if conf.API.JWTSecret == "" {
				logger.WarnContext(ctx, "api.jwt_secret is empty, state-changing endpoints will reject every request")
			}
			httpHandler := tokensaleapi.NewHTTPHandler(uc)
			if err := httpHandler.Mount(httpServer); err != nil {
				_ = cleanup.Run(ctx)
				return nil, errors.Wrap(err, "can't mount token sale API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			_ = cleanup.Run(ctx)
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	var exporter snapshotExporter
	if moduleConf.Snapshot.Interval > 0 {
		store, err := NewSnapshotStore(ctx, moduleConf.Snapshot)
		if err != nil {
			_ = cleanup.Run(ctx)
			return nil, errors.Wrap(err, "can't create snapshot store")
		}
		exporter = snapshot.NewExporter(store)
	}

	task := newServiceTask(uc, exporter, cleanup)
	return worker.New(task, moduleConf.Snapshot.Interval), nil
}

// Open connects the journal database, builds the service state from genesis and replays the journal.
// Publishers passed in opts stay owned by the caller.
func Open(ctx context.Context, conf tokensaleconfig.Config, opts ...usecase.Option) (*usecase.Usecase, Cleanup, error) {
	var cleanup Cleanup
	fail := func(err error) (*usecase.Usecase, Cleanup, error) {
		_ = cleanup.Run(ctx)
		return nil, nil, err
	}

	var dg datagateway.TokenSaleDataGateway
	switch strings.ToLower(conf.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, conf.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return fail(errors.Wrap(err, "Invalid Postgres configuration for token sale"))
			}
			return fail(errors.Wrap(err, "can't create Postgres connection pool"))
		}
		cleanup = append(cleanup, func(context.Context) error {
			pg.Close()
			return nil
		})
		dg = tokensalepostgres.NewRepository(pg)
	case "memory", "":
		logger.WarnContext(ctx, "Using in-memory journal, state is lost on restart")
		dg = memory.NewRepository()
	default:
		return fail(errors.Wrapf(errs.Unsupported, "%q database for token sale is not supported", conf.Database))
	}

	genesis, err := conf.Genesis()
	if err != nil {
		return fail(errors.Wrap(err, "invalid genesis configuration"))
	}
	uc, err := usecase.New(genesis, dg, opts...)
	if err != nil {
		return fail(errors.Wrap(err, "can't create token sale usecase"))
	}
	cleanup = append(cleanup, uc.Close)
	if err := uc.Replay(ctx); err != nil {
		return fail(errors.Wrap(err, "can't replay journal"))
	}
	return uc, cleanup, nil
}

// NewSnapshotStore uploads to S3 when a bucket is configured and writes to the output directory otherwise.
func NewSnapshotStore(ctx context.Context, conf tokensaleconfig.SnapshotConfig) (snapshot.Store, error) {
	if conf.S3Bucket != "" {
		store, err := snapshot.NewS3Store(ctx, conf.Config)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return store, nil
	}
	return snapshot.NewLocalStore(utils.Default(conf.OutputDir, defaultSnapshotDir)), nil
}
