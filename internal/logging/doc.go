// Package logging constructs the process-wide slog logger.
//
// Console output uses the tint handler for readable colorized logs on
// terminals; JSON output is used for non-TTY destinations or when configured
// explicitly. Helpers annotate loggers with slot, amplifier, and run
// correlation attributes so every pipeline log line can be traced to the
// reduction unit that emitted it.
package logging
