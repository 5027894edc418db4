package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common/errs"
	"github.com/gaze-network/token-sale/modules/tokensale/internal/entity"
	"github.com/gaze-network/token-sale/pkg/httpclient"
	"github.com/samber/lo"
)

type WebhookConfig struct {
	URL     string            `mapstructure:"url"` // Empty URL disables the webhook.
	Headers map[string]string `mapstructure:"headers"`
	Timeout time.Duration     `mapstructure:"timeout"`
	Debug   bool              `mapstructure:"debug"`
}

// WebhookPublisher posts the events of each transaction to one URL as a JSON array of messages.
type WebhookPublisher struct {
	client *httpclient.Client
}

func NewWebhook(conf WebhookConfig) (*WebhookPublisher, error) {
	if conf.URL == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "webhook url is required")
	}
	client, err := httpclient.New(conf.URL, httpclient.Config{
		Debug:   conf.Debug,
		Headers: conf.Headers,
		Timeout: conf.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(errs.InvalidArgument, err.Error())
	}
	return &WebhookPublisher{client: client}, nil
}

func (p *WebhookPublisher) Publish(ctx context.Context, tx *entity.Transaction, events []*entity.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	messages := lo.Map(events, func(event *entity.EventRecord, _ int) Message {
		return NewMessage(tx, event)
	})
	body, err := json.Marshal(messages)
	if err != nil {
		return errors.Wrapf(err, "can't marshal events of transaction %d", tx.Seq)
	}

	resp, err := p.client.Post(ctx, "", httpclient.RequestOptions{Body: body})
	if err != nil {
		return errors.Wrap(err, "can't post events")
	}
	if !resp.IsSuccess() {
		return errors.Errorf("webhook responded %d for transaction %d", resp.StatusCode, tx.Seq)
	}
	return nil
}

func (p *WebhookPublisher) Close() error {
	return nil
}

type multiPublisher []Publisher

// Multi publishes to every publisher in order and joins their errors.
func Multi(publishers ...Publisher) Publisher {
	switch len(publishers) {
	case 0:
		return Nop
	case 1:
		return publishers[0]
	}
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, tx *entity.Transaction, events []*entity.EventRecord) error {
	var errList []error
	for _, p := range m {
		if err := p.Publish(ctx, tx, events); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}

func (m multiPublisher) Close() error {
	var errList []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}
