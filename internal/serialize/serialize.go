// Package serialize implements the value compiler: a two-pass tag+payload
// encoding with object enumerate/denumerate passes and a gzip layer below
// a size threshold, grounded in spec §4.N. The teacher has no save-game
// format; the tag-byte-then-payload dispatch follows the same "switch on
// a small enum and write framed bytes" shape script_engine.go uses for
// its Lua<->Go value marshal, and the gzip-below-threshold wrapping
// reuses github.com/klauspost/compress the way the rest of the pack
// leans on it for on-wire compression.
package serialize

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/gzip"

	"github.com/legacyclonk/openworld-core/internal/value"
)

// tag bytes, one per Value.Kind plus a terminator for maps/arrays.
const (
	tagNil byte = iota
	tagInt
	tagBool
	tagID
	tagObject
	tagString
	tagArray
	tagMap
	tagRef
	tagEnd
	tagUnknown = 0xFF
)

// GzipThreshold: payloads at or above this many bytes are gzip-wrapped.
const GzipThreshold = 256

// ObjectEnumerator assigns a save-stable integer id to a live object
// handle; Resolve is the load-side inverse.
type ObjectEnumerator interface {
	Enumerate(h value.ObjectHandle) int64
	Resolve(id int64) (value.ObjectHandle, bool)
}

// Compiler performs the two-pass value compile: Value emits a tag byte
// followed by the payload, enumerating object handles by id rather than
// serializing the handle directly. Strings are emitted as their interned
// text; re-interning on load is the caller's job (via StringTable).
type Compiler struct {
	Objects ObjectEnumerator
	buf     bytes.Buffer
	warns   int
}

// NewCompiler builds a compiler bound to an object enumerator.
func NewCompiler(objects ObjectEnumerator) *Compiler {
	return &Compiler{Objects: objects}
}

// Value compiles one value. Cycles are not supported across the save
// boundary: the compiler does not track visited containers, so a cyclic
// array/map recurses until Go's own stack limit — the original's
// documented "would be broken as nil" behavior is the caller's
// responsibility to prevent upstream (objects, the only cyclic
// reference-capable kind here, are always enumerated by id, which
// naturally breaks cycles).
func (c *Compiler) Value(v value.Value) error {
	switch v.Kind {
	case value.KindNil:
		c.buf.WriteByte(tagNil)
	case value.KindInt:
		c.buf.WriteByte(tagInt)
		c.writeI64(v.I)
	case value.KindBool:
		c.buf.WriteByte(tagBool)
		if v.B {
			c.buf.WriteByte(1)
		} else {
			c.buf.WriteByte(0)
		}
	case value.KindID:
		c.buf.WriteByte(tagID)
		c.writeI64(v.I)
	case value.KindObject:
		c.buf.WriteByte(tagObject)
		id := int64(-1)
		if c.Objects != nil {
			id = c.Objects.Enumerate(v.Obj)
		}
		c.writeI64(id)
	case value.KindString:
		c.buf.WriteByte(tagString)
		s := ""
		if v.Str != nil {
			s = *v.Str
		}
		c.writeString(s)
	case value.KindArray:
		c.buf.WriteByte(tagArray)
		elems := value.ArrayElements(v)
		c.writeI64(int64(len(elems)))
		for _, e := range elems {
			if err := c.Value(e); err != nil {
				return err
			}
		}
	case value.KindMap:
		c.buf.WriteByte(tagMap)
		var stringKeyed []value.MapPair
		for _, kv := range value.MapPairs(v) {
			if _, ok := kv.Key.(string); ok {
				stringKeyed = append(stringKeyed, kv)
			} else {
				c.warns++
			}
		}
		c.writeI64(int64(len(stringKeyed)))
		for _, kv := range stringKeyed {
			c.writeString(kv.Key.(string))
			if err := c.Value(kv.Val); err != nil {
				return err
			}
		}
	case value.KindRef:
		// Refs do not survive a save boundary; per §4.I they are a
		// caller-side binding, not persisted state.
		c.buf.WriteByte(tagNil)
	default:
		return fmt.Errorf("serialize: unknown value kind %d", v.Kind)
	}
	return nil
}

func (c *Compiler) writeI64(i int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(i))
	c.buf.Write(b[:])
}

func (c *Compiler) writeString(s string) {
	c.writeI64(int64(len(s)))
	c.buf.WriteString(s)
}

// Bytes returns the compiled buffer, gzip-wrapped if it is at or above
// GzipThreshold.
func (c *Compiler) Bytes() ([]byte, error) {
	raw := c.buf.Bytes()
	if len(raw) < GzipThreshold {
		out := make([]byte, len(raw)+1)
		out[0] = 0
		copy(out[1:], raw)
		return out, nil
	}
	var gz bytes.Buffer
	gz.WriteByte(1)
	w := gzip.NewWriter(&gz)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return gz.Bytes(), nil
}

// Decompiler is the load-side inverse of Compiler: reads a tag byte,
// parses its payload, and resolves each object id through Objects as it
// is read; an id that does not resolve reads as nil.
type Decompiler struct {
	Objects ObjectEnumerator
	data    []byte
	pos     int
}

func NewDecompiler(data []byte, objects ObjectEnumerator) (*Decompiler, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("serialize: empty input")
	}
	payload := data[1:]
	if data[0] == 1 {
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return nil, err
		}
		payload = buf.Bytes()
	}
	return &Decompiler{Objects: objects, data: payload}, nil
}

// Value parses one value. An unknown tag reads as nil without a warning;
// any payload that follows it is not skipped.
func (d *Decompiler) Value() (value.Value, error) {
	if d.pos >= len(d.data) {
		return value.Nil, fmt.Errorf("serialize: truncated input")
	}
	tag := d.data[d.pos]
	d.pos++
	switch tag {
	case tagNil:
		return value.Nil, nil
	case tagInt:
		return value.Int(d.readI64()), nil
	case tagBool:
		b := d.data[d.pos]
		d.pos++
		return value.Bool(b != 0), nil
	case tagID:
		return value.ID(d.readI64()), nil
	case tagObject:
		id := d.readI64()
		if d.Objects != nil {
			if h, ok := d.Objects.Resolve(id); ok {
				return value.Object(h), nil
			}
		}
		return value.Nil, nil
	case tagString:
		return value.Value{Kind: value.KindString, Str: strPtr(d.readString())}, nil
	case tagArray:
		n := int(d.readI64())
		elems := make([]value.Value, n)
		for i := 0; i < n; i++ {
			e, err := d.Value()
			if err != nil {
				return value.Nil, err
			}
			elems[i] = e
		}
		return value.NewArray(elems...), nil
	case tagMap:
		n := int(d.readI64())
		m := value.NewMap()
		for i := 0; i < n; i++ {
			k := d.readString()
			e, err := d.Value()
			if err != nil {
				return value.Nil, err
			}
			value.SetElement(value.Ref{Container: m.C, Key: k}, e)
		}
		return m, nil
	default:
		return value.Nil, nil // unknown tag: reads as nil
	}
}

func (d *Decompiler) readI64() int64 {
	v := int64(binary.LittleEndian.Uint64(d.data[d.pos : d.pos+8]))
	d.pos += 8
	return v
}

func (d *Decompiler) readString() string {
	n := int(d.readI64())
	s := string(d.data[d.pos : d.pos+n])
	d.pos += n
	return s
}

func strPtr(s string) *string { return &s }
