//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/weather-analytics-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
	"github.com/couchcryptid/weather-analytics-etl/internal/config"
	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
	"github.com/couchcryptid/weather-analytics-etl/internal/observability"
	"github.com/couchcryptid/weather-analytics-etl/internal/pipeline"
)

const (
	testSourceTopic = "test-raw-observations"
	testAlertTopic  = "test-weather-alerts"
)

// --- helpers ---

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(broker, groupSuffix string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaAlertTopic:    testAlertTopic,
		KafkaGroupID:       fmt.Sprintf("test-%s-%d", groupSuffix, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func observationPayload(t *testing.T, city string, tavg, tmax float64) []byte {
	t.Helper()
	tmin := tavg - 5
	payload, err := json.Marshal(domain.SourceRecord{
		Date:    "2023-07-18",
		City:    city,
		Region:  "region-1",
		Station: "ST001",
		TAvg:    &tavg,
		TMin:    &tmin,
		TMax:    &tmax,
		Source:  domain.SourceMeteostat,
	})
	require.NoError(t, err)
	return payload
}

// --- tests ---

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader
// (BatchExtractor) and kafka.Writer (AlertPublisher) against real Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testAlertTopic)

	cfg := testConfig(broker, "reader")

	payload := observationPayload(t, "sevilla", 32.0, 41.5)
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("sevilla"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("sevilla"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	// Transform and classify the observation.
	transformer := pipeline.NewTransformer(discardLogger())
	obs, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	alert, tripped := analytics.AlertFor(obs)
	require.True(t, tripped)

	// Publish via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.PublishAlerts(ctx, []analytics.AlertRecord{alert}))

	// Read from the alert topic and verify key, headers, and payload.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAlertTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from alert topic")

	assert.Equal(t, []byte("sevilla|2023-07-18"), msg.Key)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "red", headers["overall_alert"])
	assert.Equal(t, "5", headers["alert_severity"])

	var received analytics.AlertRecord
	require.NoError(t, json.Unmarshal(msg.Value, &received))
	assert.Equal(t, "sevilla", received.City)
	assert.Equal(t, "red/extreme-high", received.TemperatureAlert)
	assert.Equal(t, 5, received.Severity)
}

// TestPipelinePoisonPill verifies that an invalid message is dropped and
// committed while valid messages keep flowing into the canonical loader.
func TestPipelinePoisonPill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testAlertTopic)

	cfg := testConfig(broker, "poison")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: observationPayload(t, "madrid", 20.0, 24.0)},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(discardLogger())
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	loader := &captureLoader{done: make(chan struct{})}
	staleness := &nopStaleness{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, loader, writer, staleness, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	select {
	case <-loader.done:
	case <-ctx.Done():
		t.Fatal("timed out waiting for canonical load")
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, loader.observations, 1)
	assert.Equal(t, "madrid", loader.observations[0].City)
}

// captureLoader records the first upserted batch and signals completion.
type captureLoader struct {
	observations []domain.Observation
	done         chan struct{}
	closed       bool
}

func (c *captureLoader) UpsertObservations(_ context.Context, obs []domain.Observation) error {
	c.observations = append(c.observations, obs...)
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

type nopStaleness struct{}

func (*nopStaleness) MarkStale() {}
