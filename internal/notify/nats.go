package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/rosterwatch/internal/config"
	"git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/logfields"
)

// publisher is the subset of jetstream.JetStream used by NATSSink.
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSSink publishes batches to a JetStream subject. The batch ID is used as
// the message ID so the stream drops redelivered duplicates.
type NATSSink struct {
	conn    *nats.Conn
	js      publisher
	subject string
	timeout time.Duration
}

// NewNATSSink connects to cfg.URL and, when cfg.Stream is set, makes sure a
// stream capturing cfg.Subject exists.
func NewNATSSink(ctx context.Context, cfg *config.NATSConfig) (*NATSSink, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("rosterwatch"))
	if err != nil {
		return nil, errors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.URL).
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.NotifyError("failed to create JetStream context").WithCause(err).Build()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultNotifyTimeout
	}

	if cfg.Stream != "" {
		sctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := js.CreateOrUpdateStream(sctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "rosterwatch activity batches",
			Subjects:    []string{cfg.Subject},
			Duplicates:  10 * time.Minute,
		})
		if err != nil {
			conn.Close()
			return nil, errors.NotifyError("failed to create JetStream stream").
				WithCause(err).
				WithContext("stream", cfg.Stream).
				Build()
		}
	}

	slog.Info("NATS sink initialized",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return &NATSSink{conn: conn, js: js, subject: cfg.Subject, timeout: timeout}, nil
}

func (s *NATSSink) Name() string { return "nats" }

// Send publishes the batch as JSON and waits for the stream acknowledgement.
func (s *NATSSink) Send(ctx context.Context, b Batch) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.InternalError("failed to marshal batch").WithCause(err).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ack, err := s.js.Publish(ctx, s.subject, data, jetstream.WithMsgID(b.ID))
	if err != nil {
		return errors.NotifyError("failed to publish batch").
			WithCause(err).
			WithContext("subject", s.subject).
			WithContext("batch_id", b.ID).
			Build()
	}
	if ack != nil && ack.Duplicate {
		slog.Debug("NATS dropped duplicate batch", logfields.BatchID(b.ID))
	}
	return nil
}

// Close drains and closes the connection.
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
