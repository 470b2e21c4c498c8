package services

import "context"

type contextKey string

const (
	slotKey  contextKey = "slot"
	ampKey   contextKey = "amp"
	stageKey contextKey = "stage"
	runIDKey contextKey = "run_id"
)

// WithSlot annotates context with the instrument slot identifier.
func WithSlot(ctx context.Context, slot string) context.Context {
	if slot == "" {
		return ctx
	}
	return context.WithValue(ctx, slotKey, slot)
}

// SlotFromContext returns the slot identifier if present.
func SlotFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(slotKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithAmp annotates context with the amplifier code.
func WithAmp(ctx context.Context, amp string) context.Context {
	if amp == "" {
		return ctx
	}
	return context.WithValue(ctx, ampKey, amp)
}

// AmpFromContext returns the amplifier code if present.
func AmpFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(ampKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with a run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
