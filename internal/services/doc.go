// Package services defines shared utilities consumed by the reduction
// pipeline stages.
//
// Key responsibilities:
//   - Context helpers that stamp slot identifiers, amplifier codes, stage
//     names, and run correlation IDs for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (bad input vs transient) uniform across stages.
package services
