// Package errcode defines the error taxonomy shared by the allocator,
// decoder, and merger layers.
//
// Most errors propagate immediately to the caller. Two are handled locally:
// IndexOutOfBounds is how a decoder signals end-of-stream, and is recovered
// by the merger into "retire this decoder". InterruptedByCallback is
// surfaced through outer read loops but still counts the in-flight event as
// delivered.
package errcode

import "errors"

var (
	// ErrMemoryExhausted is returned when the allocator cannot satisfy a
	// request (chunk creation failed). Never retried.
	ErrMemoryExhausted = errors.New("memory exhausted")

	// ErrIntegrityFault marks an invalid reader handle or corrupted
	// decoder state. Never recovered.
	ErrIntegrityFault = errors.New("integrity fault")

	// ErrInvalidArgument marks a bad caller parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexOutOfBounds marks end of stream for a single decoder, or a
	// seek past the end of a location's events.
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrInterruptedByCallback is returned when a registered callback asked
	// the driving loop (local reader or merger) to stop. The event that
	// triggered it has already been fully delivered.
	ErrInterruptedByCallback = errors.New("interrupted by callback")

	// ErrProcessedWithFaults marks soft corruption the caller may inspect
	// and choose to continue past.
	ErrProcessedWithFaults = errors.New("processed with faults")

	// ErrInvalid is a placeholder for not-yet-populated paths. It must
	// never escape a correctly implemented component.
	ErrInvalid = errors.New("invalid (unpopulated) result")
)

// Code classifies err against the taxonomy above. Unrecognized errors
// (including nil) classify as Unknown.
type Code int

const (
	Unknown Code = iota
	MemoryExhausted
	IntegrityFault
	InvalidArgument
	IndexOutOfBounds
	InterruptedByCallback
	ProcessedWithFaults
	Invalid
)

func Classify(err error) Code {
	switch {
	case err == nil:
		return Unknown
	case errors.Is(err, ErrMemoryExhausted):
		return MemoryExhausted
	case errors.Is(err, ErrIntegrityFault):
		return IntegrityFault
	case errors.Is(err, ErrInvalidArgument):
		return InvalidArgument
	case errors.Is(err, ErrIndexOutOfBounds):
		return IndexOutOfBounds
	case errors.Is(err, ErrInterruptedByCallback):
		return InterruptedByCallback
	case errors.Is(err, ErrProcessedWithFaults):
		return ProcessedWithFaults
	case errors.Is(err, ErrInvalid):
		return Invalid
	default:
		return Unknown
	}
}
