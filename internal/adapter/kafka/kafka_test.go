package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("madrid"),
		Value:     []byte(`{"source":"meteostat"}`),
		Topic:     "raw-weather-observations",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "provider", Value: []byte("meteostat")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("madrid"), raw.Key)
	assert.JSONEq(t, `{"source":"meteostat"}`, string(raw.Value))
	assert.Equal(t, "raw-weather-observations", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "meteostat", raw.Headers["provider"])
}

func TestSerializeToMessage(t *testing.T) {
	alert := analytics.AlertRecord{
		Date:             time.Date(2023, 7, 18, 0, 0, 0, 0, time.UTC),
		City:             "sevilla",
		Region:           "andalucia",
		TempMax:          43.1,
		TemperatureAlert: "red/extreme-high",
		OverallAlert:     "red",
		Severity:         5,
	}

	msg, err := serializeToMessage(alert)
	require.NoError(t, err)

	assert.Equal(t, []byte("sevilla|2023-07-18"), msg.Key)
	assert.Contains(t, string(msg.Value), `"temperature_alert":"red/extreme-high"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "overall_alert", msg.Headers[0].Key)
	assert.Equal(t, []byte("red"), msg.Headers[0].Value)
	assert.Equal(t, "alert_severity", msg.Headers[1].Key)
	assert.Equal(t, []byte("5"), msg.Headers[1].Value)
}
