package webproxy

import "fmt"

// UpstreamError indicates an origin fetch failure (unreachable host,
// malformed response). It maps to a terminal 502.
type UpstreamError struct {
	Message string
	URL     string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream error (%s): %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream error (%s): %s", e.URL, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation provider failure (API error, rate
// limit, etc.). The pipeline handles it by serving the untranslated page.
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache store failure. Callers fail open: a read
// error is a miss, a write error is logged and dropped.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates an HTML processing failure (parse or serialize).
type ProcessorError struct {
	Message string
	Cause   error
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error: %s", e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// PatternError indicates an unknown pattern tag during restoration. This is
// a programmer error: the normalizer only emits the four known patterns.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern error: unknown pattern %q", e.Pattern)
}

// CountMismatchError indicates a stage produced a different number of items
// than the segment list it was given. Segment order and count must be
// preserved end-to-end; a mismatch means translations would attach to the
// wrong nodes.
type CountMismatchError struct {
	Stage    string
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s count mismatch: expected %d, got %d", e.Stage, e.Expected, e.Got)
}
