package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeReader serves queued messages, then blocks until ctx is done.
type fakeReader struct {
	msgs   []kafka.Message
	errs   []error
	cancel context.CancelFunc
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return kafka.Message{}, err
	}
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		return m, nil
	}
	f.cancel()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

type fakePusher struct {
	mu     sync.Mutex
	pushed []string
	fail   bool
}

func (p *fakePusher) PushEventJSON(_ context.Context, raw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, string(raw))
	if p.fail {
		return errors.New("loki returned 500")
	}
	return nil
}

func TestForward_PushesEveryMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{
		msgs: []kafka.Message{
			{Value: []byte(`{"eventType":"login","outcome":"success"}`)},
			{Value: []byte(`{"eventType":"logout","outcome":"success"}`)},
		},
		cancel: cancel,
	}
	p := &fakePusher{}

	forward(ctx, r, p, zap.NewNop())

	assert.Equal(t, []string{
		`{"eventType":"login","outcome":"success"}`,
		`{"eventType":"logout","outcome":"success"}`,
	}, p.pushed)
}

func TestForward_PushFailureIsLoggedAndSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	core, logs := observer.New(zap.WarnLevel)
	r := &fakeReader{
		msgs:   []kafka.Message{{Value: []byte(`a`)}, {Value: []byte(`b`)}},
		cancel: cancel,
	}
	p := &fakePusher{fail: true}

	forward(ctx, r, p, zap.New(core))

	assert.Len(t, p.pushed, 2)
	assert.Equal(t, 2, logs.FilterMessage("loki push failed").Len())
}

func TestForward_StopsOnCancelAfterReadError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeReader{errs: []error{errors.New("broker down")}, cancel: cancel}
	p := &fakePusher{}

	forward(ctx, r, p, zap.NewNop())
	assert.Empty(t, p.pushed)
}
