// Package domain models daily weather observations and their canonical form.
//
// # Data Sources
//
// Observations arrive from two providers via the collector service, which
// publishes one station-day record per Kafka message as flat JSON:
//
//	meteostat: the Meteostat daily endpoint schema
//	  (date, tavg, tmin, tmax, prcp, wdir, wspd, wpgt, pres, snow, tsun, rhum)
//	aemet: the Spanish national weather service, republished under Spanish
//	  column names (fecha, temperatura_media, temperatura_minima, and so on)
//
// Both providers report in the same units: temperatures in °C, precipitation
// and snow depth in mm, wind in km/h, pressure in hPa, sunshine in minutes,
// humidity in percent. [Reconcile] renames per-source fields into the
// unified [SourceRecord] schema; a record tagged with an unknown source is a
// schema mismatch and is dropped, never fatal.
//
// # Canonical Contract
//
// [BuildCanonical] produces the single validated observation set every
// derived view reads. The mandatory fields are the date and the three core
// temperatures; records missing any of them are excluded outright. All
// other measurements are optional and stay nil when the provider did not
// report them; aggregates exclude nils rather than coercing to zero.
// AEMET stations rarely report sunshine minutes and Meteostat often omits
// snow depth, so nil-tolerance is exercised constantly in practice.
//
// The canonical set is replaced wholesale on each pipeline run. Rows are
// never mutated in place; a superseding run writes a new set and the
// previous one remains visible only through snapshots.
package domain
