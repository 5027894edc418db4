package tokensale

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/core/worker"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
)

var _ worker.Task = (*serviceTask)(nil)

type snapshotSource interface {
	Seq() uint64
	Halted() error
	Snapshot() (*entity.Snapshot, error)
}

type snapshotExporter interface {
	Export(ctx context.Context, s *entity.Snapshot) ([]string, error)
}

// serviceTask reports halted writes and exports a snapshot whenever the journal advanced since the
// last export.
type serviceTask struct {
	source   snapshotSource
	exporter snapshotExporter // nil disables exports
	cleanup  Cleanup

	exported     bool
	exportedSeq  uint64
	haltReported bool
}

func newServiceTask(source snapshotSource, exporter snapshotExporter, cleanup Cleanup) *serviceTask {
	return &serviceTask{
		source:   source,
		exporter: exporter,
		cleanup:  cleanup,
	}
}

func (t *serviceTask) Name() string {
	return "tokensale"
}

func (t *serviceTask) Run(ctx context.Context) error {
	if err := t.source.Halted(); err != nil && !t.haltReported {
		logger.ErrorContext(ctx, "Writes are halted until the service is restarted", slogx.Error(err))
		t.haltReported = true
	}

	if t.exporter == nil {
		return nil
	}
	if t.exported && t.source.Seq() == t.exportedSeq {
		return nil
	}

	s, err := t.source.Snapshot()
	if err != nil {
		return errors.Wrap(err, "can't take snapshot")
	}
	if _, err := t.exporter.Export(ctx, s); err != nil {
		return errors.Wrapf(err, "can't export snapshot at seq %d", s.Seq)
	}
	t.exported = true
	t.exportedSeq = s.Seq
	return nil
}

func (t *serviceTask) Shutdown(ctx context.Context) error {
	return errors.WithStack(t.cleanup.Run(ctx))
}
