// Package frame loads raw detector readouts from FITS files and performs
// detector-level preprocessing: overscan baseline subtraction, trimming,
// amplifier orientation, gain conversion, and uncertainty estimation.
//
// Preprocessing is a pure transform; the raw frame is never mutated, and the
// only failure modes are structural (unreadable file, missing amplifier
// codes). Missing or non-positive gain and read-noise header values are
// substituted with instrument defaults rather than treated as errors.
package frame
