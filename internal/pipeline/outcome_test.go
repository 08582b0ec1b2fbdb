package pipeline

import (
	"errors"
	"testing"

	"github.com/ironsheep/image-craft/internal/variant"
)

func TestOutcome_Message(t *testing.T) {
	src := variant.NewSourceImage("images/a.jpg")
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{
			failed(variant.DerivativeSpec{Source: src, Format: "avif"}, "images/a.avif", KindEncode, errors.New("boom")),
			"encode avif@full: boom",
		},
		{
			failed(variant.DerivativeSpec{Source: src, Format: "webp", Width: 640}, "images/a@640.webp", KindStore, errors.New("denied")),
			"store webp@640: denied",
		},
	}

	for _, tt := range tests {
		if got := tt.outcome.Message(); got != tt.want {
			t.Errorf("Message() = %q, want %q", got, tt.want)
		}
		if !tt.outcome.Failed() {
			t.Errorf("Failed() = false for %v", tt.outcome.Kind)
		}
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindNone:     "ok",
		KindRead:     "read",
		KindDecode:   "decode",
		KindResize:   "resize",
		KindEncode:   "encode",
		KindOptimize: "optimize",
		KindStore:    "store",
		Kind(42):     "Kind(42)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestOutcome_Success(t *testing.T) {
	o := Outcome{Spec: variant.DerivativeSpec{Format: "png"}, Address: "a.png", Bytes: 10}
	if o.Failed() {
		t.Error("successful outcome reported as failed")
	}
}
