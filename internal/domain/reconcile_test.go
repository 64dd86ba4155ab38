package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	t.Run("meteostat record", func(t *testing.T) {
		data := []byte(`{"date":"2023-07-14","city":"sevilla","region":"andalucia","station":"08391","lat":37.42,"lon":-5.88,"tavg":31.2,"tmin":22.4,"tmax":41.3,"prcp":0,"wdir":225,"wspd":14.8,"wpgt":33.5,"pres":1013.2,"tsun":780,"rhum":28,"source":"meteostat"}`)
		rec, err := Reconcile(RawEvent{Value: data})

		require.NoError(t, err)
		assert.Equal(t, "2023-07-14", rec.Date)
		assert.Equal(t, "sevilla", rec.City)
		assert.Equal(t, "andalucia", rec.Region)
		assert.Equal(t, "08391", rec.Station)
		require.NotNil(t, rec.TAvg)
		assert.Equal(t, 31.2, *rec.TAvg)
		require.NotNil(t, rec.TMax)
		assert.Equal(t, 41.3, *rec.TMax)
		require.NotNil(t, rec.RHum)
		assert.Equal(t, 28.0, *rec.RHum)
		assert.Nil(t, rec.Snow)
		assert.Equal(t, SourceMeteostat, rec.Source)
	})

	t.Run("aemet record renamed to unified schema", func(t *testing.T) {
		data := []byte(`{"fecha":"2023-01-20","city":"leon","region":"castilla y leon","station":"2661","temperatura_media":-1.4,"temperatura_minima":-6.2,"temperatura_maxima":3.1,"precipitacion":0.4,"velocidad_viento":22.1,"presion_atmosferica":1021.0,"nieve":40,"humedad_relativa":91,"source":"aemet"}`)
		rec, err := Reconcile(RawEvent{Value: data})

		require.NoError(t, err)
		assert.Equal(t, "2023-01-20", rec.Date)
		assert.Equal(t, "leon", rec.City)
		require.NotNil(t, rec.TAvg)
		assert.Equal(t, -1.4, *rec.TAvg)
		require.NotNil(t, rec.TMin)
		assert.Equal(t, -6.2, *rec.TMin)
		require.NotNil(t, rec.Prcp)
		assert.Equal(t, 0.4, *rec.Prcp)
		require.NotNil(t, rec.Snow)
		assert.Equal(t, 40.0, *rec.Snow)
		require.NotNil(t, rec.RHum)
		assert.Equal(t, 91.0, *rec.RHum)
		assert.Nil(t, rec.TSun, "aemet rarely reports sunshine")
		assert.Nil(t, rec.WDir)
		assert.Equal(t, SourceAEMET, rec.Source)
	})

	t.Run("unknown source", func(t *testing.T) {
		data := []byte(`{"date":"2023-07-14","city":"sevilla","tavg":31.2,"source":"openweathermap"}`)
		_, err := Reconcile(RawEvent{Value: data})

		require.Error(t, err)
		var unknownErr ErrUnknownSource
		require.ErrorAs(t, err, &unknownErr)
		assert.Equal(t, "openweathermap", unknownErr.Source)
	})

	t.Run("missing source tag", func(t *testing.T) {
		_, err := Reconcile(RawEvent{Value: []byte(`{"date":"2023-07-14"}`)})

		require.Error(t, err)
		var unknownErr ErrUnknownSource
		require.ErrorAs(t, err, &unknownErr)
		assert.Empty(t, unknownErr.Source)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := Reconcile(RawEvent{Value: []byte("{not json")})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reconcile raw event")
	})
}
