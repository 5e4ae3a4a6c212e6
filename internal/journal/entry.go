package journal

import (
	"fmt"
	"time"

	"github.com/roach88/aqlgen/internal/ir"
)

// Entry is one recorded execution.
type Entry struct {
	ID          string        `json:"id"`
	Seq         int64         `json:"seq"`
	Shape       string        `json:"shape"`
	Fingerprint string        `json:"fingerprint"`
	Query       string        `json:"query"`
	BindVars    ir.IRObject   `json:"bindVars"`
	Elapsed     time.Duration `json:"elapsedNs"`
	Error       string        `json:"error,omitempty"`
}

// Failed reports whether the execution returned an error.
func (e Entry) Failed() bool { return e.Error != "" }

// ShapeStat aggregates the executions of one query shape.
type ShapeStat struct {
	Shape    string        `json:"shape"`
	Query    string        `json:"query"`
	Count    int           `json:"count"`
	Failures int           `json:"failures"`
	Total    time.Duration `json:"totalNs"`
	LastSeq  int64         `json:"lastSeq"`
}

// Mean returns the average execution time.
func (s ShapeStat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// marshalBindVars stores bind variables as canonical JSON, so equal
// parameter sets are byte-identical in the database.
func marshalBindVars(vars map[string]any) (string, error) {
	data, err := ir.MarshalCanonical(vars)
	if err != nil {
		return "", fmt.Errorf("marshal bind vars: %w", err)
	}
	return string(data), nil
}

func unmarshalBindVars(data string) (ir.IRObject, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal bind vars: %w", err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("unmarshal bind vars: expected object, got %T", v)
	}
	return obj, nil
}
