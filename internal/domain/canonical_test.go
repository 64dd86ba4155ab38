package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func validRecord() SourceRecord {
	return SourceRecord{
		Date:    "2023-07-14",
		City:    "sevilla",
		Region:  "andalucia",
		Station: "08391",
		TAvg:    f(31.2),
		TMin:    f(22.4),
		TMax:    f(41.3),
		Prcp:    f(0),
		RHum:    f(28),
		Source:  SourceMeteostat,
	}
}

func TestBuildObservation(t *testing.T) {
	frozen := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	t.Run("valid record", func(t *testing.T) {
		obs, ok := BuildObservation(validRecord())

		require.True(t, ok)
		assert.Equal(t, time.Date(2023, time.July, 14, 0, 0, 0, 0, time.UTC), obs.Date)
		assert.Equal(t, 2023, obs.Year)
		assert.Equal(t, 7, obs.Month)
		assert.Equal(t, "sevilla", obs.City)
		assert.Equal(t, 31.2, obs.TempAvg)
		assert.Equal(t, 22.4, obs.TempMin)
		assert.Equal(t, 41.3, obs.TempMax)
		require.NotNil(t, obs.Precip)
		assert.Equal(t, 0.0, *obs.Precip)
		assert.Nil(t, obs.SnowDepth)
		assert.Equal(t, frozen, obs.IngestedAt)
	})

	t.Run("datetime string truncated to date", func(t *testing.T) {
		rec := validRecord()
		rec.Date = "2023-07-14 00:00:00"
		obs, ok := BuildObservation(rec)

		require.True(t, ok)
		assert.Equal(t, time.Date(2023, time.July, 14, 0, 0, 0, 0, time.UTC), obs.Date)
	})

	t.Run("missing core temperature rejected", func(t *testing.T) {
		for _, strip := range []func(*SourceRecord){
			func(r *SourceRecord) { r.TAvg = nil },
			func(r *SourceRecord) { r.TMin = nil },
			func(r *SourceRecord) { r.TMax = nil },
		} {
			rec := validRecord()
			strip(&rec)
			_, ok := BuildObservation(rec)
			assert.False(t, ok)
		}
	})

	t.Run("missing date rejected", func(t *testing.T) {
		rec := validRecord()
		rec.Date = ""
		_, ok := BuildObservation(rec)
		assert.False(t, ok)
	})

	t.Run("unparseable date rejected", func(t *testing.T) {
		rec := validRecord()
		rec.Date = "14/07/2023"
		_, ok := BuildObservation(rec)
		assert.False(t, ok)
	})
}

func TestBuildCanonical(t *testing.T) {
	t.Run("filters invalid rows and keeps input order", func(t *testing.T) {
		bad := validRecord()
		bad.TMax = nil
		second := validRecord()
		second.Date = "2023-07-15"

		obs := BuildCanonical([]SourceRecord{validRecord(), bad, second})

		require.Len(t, obs, 2)
		assert.Equal(t, time.Date(2023, time.July, 14, 0, 0, 0, 0, time.UTC), obs[0].Date)
		assert.Equal(t, time.Date(2023, time.July, 15, 0, 0, 0, 0, time.UTC), obs[1].Date)
	})

	t.Run("empty input yields empty non-nil set", func(t *testing.T) {
		obs := BuildCanonical(nil)

		require.NotNil(t, obs)
		assert.Empty(t, obs)
	})
}
