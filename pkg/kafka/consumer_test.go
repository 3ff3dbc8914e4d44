package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sinkHandler struct{ topic string }

func (h sinkHandler) Topic() string                              { return h.topic }
func (h sinkHandler) Handle(ctx context.Context, _ []byte) error { return nil }

func TestConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	require.Error(t, err)
}

func TestConsumerRegisterHandlerOncePerTopic(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"127.0.0.1:9092"}))
	require.NoError(t, err)

	c.RegisterHandler(sinkHandler{topic: "bars"})
	c.RegisterHandler(sinkHandler{topic: "bars"})
	require.Len(t, c.handlers, 1)
}

func TestConsumerStopDrainsBeforeClosingQueue(t *testing.T) {
	// The message queue must stay open until every producer of it has
	// returned; a premature close while a reader is mid-send panics the
	// whole process.
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"127.0.0.1:9092"}),
		WithConsumerWorkers(2),
		WithConsumerBufferSize(1),
	)
	require.NoError(t, err)
	c.RegisterHandler(sinkHandler{topic: "bars"})

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workerWg.Add(1)
		go c.messageWorker()
	}

	// Stand-in for reader goroutines: flood the queue until stop.
	for i := 0; i < 4; i++ {
		c.readerWg.Add(1)
		go func() {
			defer c.readerWg.Done()
			for {
				select {
				case c.msgChan <- &message{topic: "bars", data: []byte("x")}:
				case <-c.stopChan:
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	// Stop is idempotent.
	require.NoError(t, c.Stop(ctx))
}
