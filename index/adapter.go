package index

import (
	"fmt"

	"github.com/hupe1980/segquery/distance"
)

// Parameter bounds enforced by the adapters.
const (
	// MaxTopK is the largest per-query match count any backend accepts.
	MaxTopK = 16384
	// MaxEF bounds the HNSW exploration factor.
	MaxEF = 32768
	// MaxNProbe bounds the IVF probe count.
	MaxNProbe = 65536
)

// ErrInvalidParam indicates a search parameter a backend cannot accept.
type ErrInvalidParam struct {
	Key    string
	Value  any
	Reason string
}

func (e *ErrInvalidParam) Error() string {
	return fmt.Sprintf("invalid search param %q=%v: %s", e.Key, e.Value, e.Reason)
}

// Adapter validates and normalizes search parameters for one index type
// before a query is dispatched. A non-nil error means dispatching would
// invoke undefined backend behavior.
type Adapter interface {
	CheckSearch(params Params, t Type, m Mode) error
}

// AdapterFor selects the adapter for a concrete index type.
func AdapterFor(t Type) (Adapter, error) {
	switch t {
	case TypeFlat:
		return flatAdapter{}, nil
	case TypeHNSW:
		return hnswAdapter{}, nil
	case TypeIVFFlat:
		return ivfAdapter{}, nil
	default:
		return nil, fmt.Errorf("no adapter registered for index type %q", t)
	}
}

// checkCommon validates the parameters every backend requires: a topk within
// bounds and a recognized metric name.
func checkCommon(params Params) (topk int, err error) {
	topk, ok := params.Int(ParamTopK)
	if !ok {
		return 0, &ErrInvalidParam{Key: ParamTopK, Value: params[ParamTopK], Reason: "missing or not an integer"}
	}
	if topk < 1 || topk > MaxTopK {
		return 0, &ErrInvalidParam{Key: ParamTopK, Value: topk, Reason: fmt.Sprintf("must be in [1, %d]", MaxTopK)}
	}

	name, ok := params.String(ParamMetric)
	if !ok {
		return 0, &ErrInvalidParam{Key: ParamMetric, Value: params[ParamMetric], Reason: "missing or not a string"}
	}
	if _, err := distance.Parse(name); err != nil {
		return 0, &ErrInvalidParam{Key: ParamMetric, Value: name, Reason: "unknown metric"}
	}
	return topk, nil
}

type flatAdapter struct{}

func (flatAdapter) CheckSearch(params Params, t Type, m Mode) error {
	_, err := checkCommon(params)
	return err
}

type hnswAdapter struct{}

func (hnswAdapter) CheckSearch(params Params, t Type, m Mode) error {
	topk, err := checkCommon(params)
	if err != nil {
		return err
	}

	// ef is optional; backends default it to topk.
	if _, present := params[ParamEF]; present {
		ef, ok := params.Int(ParamEF)
		if !ok {
			return &ErrInvalidParam{Key: ParamEF, Value: params[ParamEF], Reason: "not an integer"}
		}
		if ef < topk {
			return &ErrInvalidParam{Key: ParamEF, Value: ef, Reason: fmt.Sprintf("must be >= topk (%d)", topk)}
		}
		if ef > MaxEF {
			return &ErrInvalidParam{Key: ParamEF, Value: ef, Reason: fmt.Sprintf("must be <= %d", MaxEF)}
		}
	}
	return nil
}

type ivfAdapter struct{}

func (ivfAdapter) CheckSearch(params Params, t Type, m Mode) error {
	if _, err := checkCommon(params); err != nil {
		return err
	}

	if _, present := params[ParamNProbe]; present {
		nprobe, ok := params.Int(ParamNProbe)
		if !ok {
			return &ErrInvalidParam{Key: ParamNProbe, Value: params[ParamNProbe], Reason: "not an integer"}
		}
		if nprobe < 1 || nprobe > MaxNProbe {
			return &ErrInvalidParam{Key: ParamNProbe, Value: nprobe, Reason: fmt.Sprintf("must be in [1, %d]", MaxNProbe)}
		}
	}
	return nil
}
