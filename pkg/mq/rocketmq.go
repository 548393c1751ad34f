package mq

import (
	"context"
	"errors"
	"strings"
	"time"

	rmq "github.com/apache/rocketmq-clients/golang/v5"
	"github.com/apache/rocketmq-clients/golang/v5/credentials"
	"go.uber.org/zap"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
)

// Publisher is a minimal facade for sending messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Close() error
}

// Options configures the RocketMQ producer
type Options struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Topics       []string
	StartTimeout time.Duration
}

// Real publisher backed by RocketMQ v5 client.
type rmqPublisher struct{ p rmq.Producer }

func (r *rmqPublisher) Publish(ctx context.Context, topic string, body []byte) error {
	msg := &rmq.Message{Topic: topic, Body: body}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := r.p.Send(ctx, msg)
	return err
}

func (r *rmqPublisher) Close() error { return r.p.GracefulStop() }

// Stub publisher used when MQ is disabled.
type stubPublisher struct{}

func (s *stubPublisher) Publish(ctx context.Context, topic string, body []byte) error {
	logger.Debug("[mq disabled] drop message", zap.String("topic", topic))
	return nil
}

func (s *stubPublisher) Close() error { return nil }

// NewStub returns a publisher that drops every message
func NewStub() Publisher { return &stubPublisher{} }

// NormalizeEndpoint trims a configured endpoint to a single host:port.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	if idx := strings.IndexAny(endpoint, ",;"); idx > 0 {
		endpoint = strings.TrimSpace(endpoint[:idx])
	}
	return endpoint
}

// NewPublisher starts a RocketMQ producer. An empty endpoint yields the stub.
func NewPublisher(opts Options) (Publisher, error) {
	endpoint := NormalizeEndpoint(opts.Endpoint)
	if endpoint == "" {
		return NewStub(), nil
	}
	// the SDK panics while signing without credentials
	if strings.TrimSpace(opts.AccessKey) == "" || strings.TrimSpace(opts.SecretKey) == "" {
		return nil, errors.New("rocketmq: missing access/secret key")
	}

	rmq.ResetLogger()
	cfg := &rmq.Config{
		Endpoint:    endpoint,
		Credentials: &credentials.SessionCredentials{AccessKey: opts.AccessKey, AccessSecret: opts.SecretKey},
	}
	var popts []rmq.ProducerOption
	if len(opts.Topics) > 0 {
		popts = append(popts, rmq.WithTopics(opts.Topics...))
	}
	p, err := rmq.NewProducer(cfg, popts...)
	if err != nil {
		return nil, err
	}

	startDone := make(chan error, 1)
	go func() {
		startDone <- p.Start()
	}()

	timeout := opts.StartTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case err := <-startDone:
		if err != nil {
			return nil, err
		}
	case <-time.After(timeout):
		return nil, errors.New("rocketmq: producer start timeout")
	}
	logger.Info("rocketmq enabled", zap.String("endpoint", endpoint), zap.Strings("topics", opts.Topics))
	return &rmqPublisher{p: p}, nil
}
