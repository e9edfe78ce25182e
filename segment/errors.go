package segment

import (
	"fmt"

	"github.com/hupe1980/segquery/distance"
)

// ErrFieldNotFound indicates a search against a field the schema does not hold.
type ErrFieldNotFound struct {
	Field FieldID
}

func (e *ErrFieldNotFound) Error() string {
	return fmt.Sprintf("field %d not found in schema", e.Field)
}

// ErrIndexNotReady indicates a search against a field whose index build has
// not completed.
type ErrIndexNotReady struct {
	Field FieldID
}

func (e *ErrIndexNotReady) Error() string {
	return fmt.Sprintf("index for field %d is not ready", e.Field)
}

// ErrMetricMismatch indicates a request whose metric differs from the metric
// the field's index was built for. Searching with the wrong metric silently
// returns garbage rankings, so this is a hard precondition failure.
type ErrMetricMismatch struct {
	Field     FieldID
	Stored    distance.Metric
	Requested distance.Metric
}

func (e *ErrMetricMismatch) Error() string {
	return fmt.Sprintf("field %d index built for metric %v, search requests %v", e.Field, e.Stored, e.Requested)
}

// ErrSelectionMismatch indicates a selection mask whose bit length does not
// cover the indexed record count.
type ErrSelectionMismatch struct {
	Field   FieldID
	Records int
	Bits    int
}

func (e *ErrSelectionMismatch) Error() string {
	return fmt.Sprintf("selection covers %d records, field %d index holds %d", e.Bits, e.Field, e.Records)
}
