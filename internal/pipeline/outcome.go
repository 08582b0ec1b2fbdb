package pipeline

import (
	"fmt"

	"github.com/ironsheep/image-craft/internal/variant"
)

// Kind classifies the step a derivative failed in.
type Kind int

const (
	KindNone Kind = iota
	KindRead
	KindDecode
	KindResize
	KindEncode
	KindOptimize
	KindStore
)

var kindNames = [...]string{
	KindNone:     "ok",
	KindRead:     "read",
	KindDecode:   "decode",
	KindResize:   "resize",
	KindEncode:   "encode",
	KindOptimize: "optimize",
	KindStore:    "store",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Outcome is the result of producing one derivative.
type Outcome struct {
	Spec    variant.DerivativeSpec
	Address string

	// Bytes is the stored size. Zero on failure.
	Bytes int64

	// Kind is KindNone on success.
	Kind Kind
	Err  error
}

// Failed reports whether the derivative was not stored.
func (o Outcome) Failed() bool {
	return o.Kind != KindNone
}

// Message formats the failure for the ledger:
// "{kind} {format}@{width}: {error}".
func (o Outcome) Message() string {
	return fmt.Sprintf("%s %s@%s: %v", o.Kind, o.Spec.Format, o.Spec.WidthKey(), o.Err)
}

func failed(spec variant.DerivativeSpec, address string, kind Kind, err error) Outcome {
	return Outcome{Spec: spec, Address: address, Kind: kind, Err: err}
}
