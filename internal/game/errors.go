package game

import "fmt"

// ZoneError reports an illegal or impossible zone transition. The state is
// never mutated when a ZoneError is returned.
type ZoneError struct {
	CardID string
	Zone   Zone
	Reason string
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("zone error: %s", e.Reason)
}

func newZoneError(cardID string, zone Zone, format string, args ...any) *ZoneError {
	return &ZoneError{
		CardID: cardID,
		Zone:   zone,
		Reason: fmt.Sprintf(format, args...),
	}
}

// ValidationError reports an illegal action attempt: attacking while
// ineligible, playing a counter card not in hand, insufficient DON for a
// counter event. These are surfaced synchronously and never silently ignored.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func newValidationError(op, format string, args ...any) *ValidationError {
	return &ValidationError{
		Op:     op,
		Reason: fmt.Sprintf(format, args...),
	}
}
