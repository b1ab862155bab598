//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/turtlewatch/internal/adapter/kafka"
	"github.com/couchcryptid/turtlewatch/internal/config"
	"github.com/couchcryptid/turtlewatch/internal/domain"
)

const testProductTopic = "test-turtlewatch-products"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("turtlewatch-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker addresses")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic provisions a topic on the broker's controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPublisherRoundTrip verifies that a run outcome produced by the
// Publisher can be read back off the topic with its key, headers, and
// payload intact.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testProductTopic)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testProductTopic,
	}
	pub := kafkaadapter.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testProductTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	product := domain.Product{
		Date:        time.Date(2013, time.May, 5, 0, 0, 0, 0, time.UTC),
		WindowStart: time.Date(2013, time.May, 3, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2013, time.May, 5, 0, 0, 0, 0, time.UTC),
		Artifacts: []domain.Artifact{
			{Locale: "en", Size: domain.SizeFull, Path: "/tmp/turtlewatch.png"},
			{Locale: "vi", Size: domain.SizeThumbnail, Path: "/tmp/turtlewatch_vi.png"},
		},
	}
	require.NoError(t, pub.NotifySuccess(ctx, product))

	readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
	defer cancelRead()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read product event")

	assert.Equal(t, "2013-05-05", string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "published", headers["status"])
	assert.NotEmpty(t, headers["produced_at"])

	var event kafkaadapter.ProductEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "published", event.Status)
	assert.Equal(t, "2013-05-03", event.WindowStart)
	assert.Equal(t, "2013-05-05", event.WindowEnd)
	require.Len(t, event.Images, 2)
	assert.Equal(t, "turtlewatch_en_full_latest.png", event.Images[0].File)
	assert.Equal(t, "turtlewatch_vi_thumbnail_latest.png", event.Images[1].File)
}

// TestPublisherFailureEvent verifies the failed-run event shape end to end.
func TestPublisherFailureEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testProductTopic)

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testProductTopic,
	}
	pub := kafkaadapter.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testProductTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	runDate := time.Date(2013, time.May, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, pub.NotifyFailure(ctx, runDate, errors.New("no grid for today")))

	readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
	defer cancelRead()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read failure event")

	var event kafkaadapter.ProductEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "failed", event.Status)
	assert.Equal(t, "2013-05-05", event.Date)
	assert.Equal(t, "no grid for today", event.Error)
	assert.Empty(t, event.Images)
}
