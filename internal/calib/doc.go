// Package calib owns calibration data for the reduction pipeline.
//
// The Store persists one record per (instrument slot, amplifier) in SQLite:
// fiber sky positions, the per-fiber wavelength solution, the per-fiber trace
// table, and an optional master bias. Records are immutable for the duration
// of a run; the pipeline only reads them.
//
// Resolve implements the calibration day-walk: when no calibration exposures
// exist for the requested date, the search steps backward one calendar day at
// a time, capped at a configurable number of attempts. Exhaustion is a soft
// condition; the caller decides whether the missing calibration is fatal.
package calib
