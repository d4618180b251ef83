package track

import "fmt"

// SchemaError reports input that does not match the expected tracking
// schema: a required field is missing or carries the wrong type. It is
// raised before any rows are accepted, never retried.
type SchemaError struct {
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema error: %s", e.Msg)
	}
	return fmt.Sprintf("schema error: field %q: %s", e.Field, e.Msg)
}

// ValidationError reports loaded rows that violate a data invariant
// (clock monotonicity, pitch bounds, negative speed). It identifies the
// offending player and frame range so a faulty entity can be skipped
// while the rest of the session proceeds.
type ValidationError struct {
	PlayerID   string
	FirstFrame int
	LastFrame  int
	Msg        string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: player %s frames %d-%d: %s",
		e.PlayerID, e.FirstFrame, e.LastFrame, e.Msg)
}

// ComputationError reports a metric that cannot be computed for a player,
// typically because fewer than two frames exist. Whether sparse players
// produce this error or a zero-valued row is a metrics.SparsePolicy
// decision; the error itself is terminal for that player.
type ComputationError struct {
	PlayerID string
	Metric   string
	Msg      string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error: metric %s for player %s: %s",
		e.Metric, e.PlayerID, e.Msg)
}
