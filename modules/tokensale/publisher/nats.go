package publisher

import (
	"context"
	"strings"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
	"github.com/nats-io/nats.go"
)

const (
	DefaultSubjectPrefix  = "tokensale"
	DefaultReconnectWait  = 2 * time.Second
	DefaultMaxReconnects  = 60
	DefaultConnectTimeout = 5 * time.Second
	DefaultFlushTimeout   = 5 * time.Second
)

type Config struct {
	URL            string        `mapstructure:"url"` // Empty URL disables publishing.
	Name           string        `mapstructure:"name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"` // Default is "tokensale"
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	FlushTimeout   time.Duration `mapstructure:"flush_timeout"` // Used when the publish context has no deadline.
}

// NATSPublisher publishes each event on "<prefix>.<event name>".
type NATSPublisher struct {
	conn         *nats.Conn
	prefix       string
	flushTimeout time.Duration
}

func NewNATS(conf Config) (*NATSPublisher, error) {
	if conf.URL == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "nats url is required")
	}
	opts := []nats.Option{
		nats.Name(utils.Default(conf.Name, "tokensale")),
		nats.ReconnectWait(utils.Default(conf.ReconnectWait, DefaultReconnectWait)),
		nats.MaxReconnects(utils.Default(conf.MaxReconnects, DefaultMaxReconnects)),
		nats.Timeout(utils.Default(conf.ConnectTimeout, DefaultConnectTimeout)),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", slogx.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", slogx.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(conf.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "can't connect to NATS")
	}
	return &NATSPublisher{
		conn:         conn,
		prefix:       strings.TrimSuffix(utils.Default(conf.SubjectPrefix, DefaultSubjectPrefix), "."),
		flushTimeout: utils.Default(conf.FlushTimeout, DefaultFlushTimeout),
	}, nil
}

func Subject(prefix string, eventName string) string {
	return prefix + "." + eventName
}

func (p *NATSPublisher) Publish(ctx context.Context, tx *entity.Transaction, events []*entity.EventRecord) error {
	for _, event := range events {
		payload, err := encodeMessage(tx, event)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := p.conn.Publish(Subject(p.prefix, event.Name), payload); err != nil {
			return errors.Wrapf(err, "can't publish event %d/%d", event.TxSeq, event.LogIndex)
		}
	}
	flushCtx, cancel := withFlushDeadline(ctx, p.flushTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return errors.Wrap(err, "can't flush NATS connection")
	}
	return nil
}

// withFlushDeadline keeps an existing deadline. FlushWithContext rejects contexts without one.
func withFlushDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		return errors.Wrap(err, "can't drain NATS connection")
	}
	return nil
}
