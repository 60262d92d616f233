package serialize

import (
	"testing"

	"github.com/legacyclonk/openworld-core/internal/value"
)

type noOpEnumerator struct{}

func (noOpEnumerator) Enumerate(h value.ObjectHandle) int64       { return int64(h.Index) }
func (noOpEnumerator) Resolve(id int64) (value.ObjectHandle, bool) { return value.ObjectHandle{Index: int(id), Gen: 1}, true }

// TestRoundTripScalarsAndArray implements testable property 4: a
// compiled value decompiles back to an equal value.
func TestRoundTripScalarsAndArray(t *testing.T) {
	in := value.NewArray(value.Int(1), value.Bool(true), value.ID(42))

	c := NewCompiler(noOpEnumerator{})
	if err := c.Value(in); err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	out, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	d, err := NewDecompiler(out, noOpEnumerator{})
	if err != nil {
		t.Fatalf("NewDecompiler() error: %v", err)
	}
	got, err := d.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	if !value.Compare(in, got, value.StrictDuckCompatible) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestRoundTripMapStringKeyed(t *testing.T) {
	m := value.NewMap()
	value.SetElement(value.Ref{Container: m.C, Key: "hp"}, value.Int(10))
	value.SetElement(value.Ref{Container: m.C, Key: "mp"}, value.Int(5))

	c := NewCompiler(nil)
	if err := c.Value(m); err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	out, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	d, err := NewDecompiler(out, nil)
	if err != nil {
		t.Fatalf("NewDecompiler() error: %v", err)
	}
	got, err := d.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if !value.Compare(m, got, value.StrictDuckCompatible) {
		t.Fatal("expected map round trip to preserve contents")
	}
}

func TestLargePayloadIsGzipWrapped(t *testing.T) {
	elems := make([]value.Value, 0, 200)
	for i := 0; i < 200; i++ {
		elems = append(elems, value.Int(int64(i)))
	}
	big := value.NewArray(elems...)

	c := NewCompiler(nil)
	if err := c.Value(big); err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	out, err := c.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	if out[0] != 1 {
		t.Fatal("expected a large payload to be gzip-wrapped")
	}

	d, err := NewDecompiler(out, nil)
	if err != nil {
		t.Fatalf("NewDecompiler() error: %v", err)
	}
	got, err := d.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if !value.Compare(big, got, value.StrictDuckCompatible) {
		t.Fatal("expected gzip round trip to preserve contents")
	}
}
