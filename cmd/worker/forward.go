package main

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	pushTimeout = 10 * time.Second
	readBackoff = time.Second
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type eventPusher interface {
	PushEventJSON(ctx context.Context, rawJSON []byte) error
}

// forward copies messages from r to p until ctx is done. Push failures are logged and the
// message is skipped; session events are best-effort.
func forward(ctx context.Context, r messageReader, p eventPusher, logger *zap.Logger) {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("kafka read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(readBackoff):
			}
			continue
		}

		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		if err := p.PushEventJSON(pushCtx, msg.Value); err != nil {
			logger.Warn("loki push failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		cancel()
	}
}
