package convlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const streamName = "CONVERSATIONS"

// NATSSink publishes records to a JetStream subject. The stream is created
// on connect if missing.
type NATSSink struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
}

func NewNATSSink(url, subject string, logger *zap.Logger) (*NATSSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		// publish still works when the stream is managed elsewhere
		logger.Named("convlog").Warn("ensure stream failed", zap.String("stream", streamName), zap.Error(err))
	}
	return &NATSSink{nc: nc, js: js, subject: subject}, nil
}

func (s *NATSSink) Write(ctx context.Context, r Record) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	ack, err := s.js.Publish(ctx, s.subject, data)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", s.subject, err)
	}
	return ack.Stream + ":" + strconv.FormatUint(ack.Sequence, 10), nil
}

func (s *NATSSink) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
