package domain

import (
	"encoding/json"
	"fmt"
)

// Source identifiers accepted by Reconcile. Any other value is a schema
// mismatch and the record is dropped by the caller.
const (
	SourceMeteostat = "meteostat"
	SourceAEMET     = "aemet"
)

// ErrUnknownSource reports a raw record whose source tag matches no
// registered provider schema.
type ErrUnknownSource struct {
	Source string
}

func (e ErrUnknownSource) Error() string {
	return fmt.Sprintf("unknown source %q", e.Source)
}

// sourceEnvelope peeks at the provider tag without committing to a schema.
type sourceEnvelope struct {
	Source string `json:"source"`
}

// aemetRecord is the AEMET daily record as published by the collector, with
// Spanish column names. Reconciliation renames it into the unified schema.
type aemetRecord struct {
	Fecha              string   `json:"fecha"`
	City               string   `json:"city"`
	Region             string   `json:"region"`
	Station            string   `json:"station"`
	Lat                *float64 `json:"lat"`
	Lon                *float64 `json:"lon"`
	TemperaturaMedia   *float64 `json:"temperatura_media"`
	TemperaturaMinima  *float64 `json:"temperatura_minima"`
	TemperaturaMaxima  *float64 `json:"temperatura_maxima"`
	Precipitacion      *float64 `json:"precipitacion"`
	DireccionViento    *float64 `json:"direccion_viento"`
	VelocidadViento    *float64 `json:"velocidad_viento"`
	RachaMaxima        *float64 `json:"racha_maxima"`
	PresionAtmosferica *float64 `json:"presion_atmosferica"`
	Nieve              *float64 `json:"nieve"`
	HorasSol           *float64 `json:"horas_sol"`
	HumedadRelativa    *float64 `json:"humedad_relativa"`
	Source             string   `json:"source"`
}

// Reconcile deserializes a raw source message into the unified SourceRecord
// schema. Meteostat records already use the unified field names; AEMET
// records arrive under Spanish column names and are renamed here. Units are
// identical across providers (°C, mm, km/h, hPa, minutes, percent) so the
// rename is unit-preserving.
func Reconcile(raw RawEvent) (SourceRecord, error) {
	var env sourceEnvelope
	if err := json.Unmarshal(raw.Value, &env); err != nil {
		return SourceRecord{}, fmt.Errorf("reconcile raw event: %w", err)
	}

	switch env.Source {
	case SourceMeteostat:
		var rec SourceRecord
		if err := json.Unmarshal(raw.Value, &rec); err != nil {
			return SourceRecord{}, fmt.Errorf("reconcile meteostat record: %w", err)
		}
		return rec, nil
	case SourceAEMET:
		var rec aemetRecord
		if err := json.Unmarshal(raw.Value, &rec); err != nil {
			return SourceRecord{}, fmt.Errorf("reconcile aemet record: %w", err)
		}
		return SourceRecord{
			Date:    rec.Fecha,
			City:    rec.City,
			Region:  rec.Region,
			Station: rec.Station,
			Lat:     rec.Lat,
			Lon:     rec.Lon,
			TAvg:    rec.TemperaturaMedia,
			TMin:    rec.TemperaturaMinima,
			TMax:    rec.TemperaturaMaxima,
			Prcp:    rec.Precipitacion,
			WDir:    rec.DireccionViento,
			WSpd:    rec.VelocidadViento,
			WPgt:    rec.RachaMaxima,
			Pres:    rec.PresionAtmosferica,
			Snow:    rec.Nieve,
			TSun:    rec.HorasSol,
			RHum:    rec.HumedadRelativa,
			Source:  SourceAEMET,
		}, nil
	default:
		return SourceRecord{}, ErrUnknownSource{Source: env.Source}
	}
}
