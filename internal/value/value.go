// Package value implements the tagged-variant script value used across
// the runtime: nil/int/bool/id/object/string/array/map/ref, with
// reference-counted copy-on-write containers, a generational object
// arena, and string interning, grounded in spec §4.I ("Value model").
// The teacher has no equivalent; the generational-handle approach follows
// Design Note "Cyclic object graphs with manual pointers" and the general
// handle-over-pointer idiom gopher-lua itself uses for its registry in
// script_engine.go.
package value

import (
	"hash/fnv"
	"io"
)

// Kind tags which of the 8 variants a Value holds, plus nil as a 9th
// implicit state (Kind zero value).
type Kind int

const (
	KindNil Kind = iota
	KindInt
	KindBool
	KindID
	KindObject
	KindString
	KindArray
	KindMap
	KindRef
)

// ObjectHandle is a generational-arena reference to a live game object: a
// destroyed object's slot is reused, but handles minted before the
// destruction carry the old generation and compare unequal to the new
// occupant.
type ObjectHandle struct {
	Index int
	Gen   uint32
}

// Ref is a handle into a container element: (container, key). Dereferencing
// it reads the container's current contents, so a ref whose index is past
// the end after a SetArrayLength shrink, or whose map key was deleted,
// resolves to nil.
type Ref struct {
	Container *Container
	Key       any // int for arrays, any hashable for maps
}

// Container is the reference-counted backing store shared by every Value
// that holds the same array or map; copying a Value bumps refs, mutating
// through a shared container triggers copy-on-write.
type Container struct {
	refs int
	gen  uint32
	arr  []Value
	m    map[any]Value
	isMap bool
}

func newArrayContainer(elems []Value) *Container {
	return &Container{refs: 1, arr: elems}
}

func newMapContainer(m map[any]Value) *Container {
	return &Container{refs: 1, m: m, isMap: true}
}

// Value is the tagged variant. Only the field matching Kind is valid.
type Value struct {
	Kind Kind
	I    int64
	B    bool
	Obj  ObjectHandle
	Str  *string // interned
	C    *Container
	R    Ref
}

// Nil is the canonical nil value.
var Nil = Value{Kind: KindNil}

func Int(i int64) Value    { return Value{Kind: KindInt, I: i} }
func Bool(b bool) Value    { return Value{Kind: KindBool, B: b} }
func ID(id int64) Value    { return Value{Kind: KindID, I: id} }
func Object(h ObjectHandle) Value { return Value{Kind: KindObject, Obj: h} }

// StringTable interns strings within one table so equal Values share one
// backing pointer and release decrements a single refcount.
type StringTable struct {
	entries map[string]*stringEntry
}

type stringEntry struct {
	s    string
	refs int
}

func NewStringTable() *StringTable {
	return &StringTable{entries: make(map[string]*stringEntry)}
}

func (t *StringTable) Intern(s string) Value {
	e, ok := t.entries[s]
	if !ok {
		e = &stringEntry{s: s, refs: 0}
		t.entries[s] = e
	}
	e.refs++
	return Value{Kind: KindString, Str: &e.s}
}

// Release decrements the refcount of an interned string, removing it from
// the table once it drops to zero.
func (t *StringTable) Release(v Value) {
	if v.Kind != KindString || v.Str == nil {
		return
	}
	e, ok := t.entries[*v.Str]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(t.entries, *v.Str)
	}
}

// NewArray builds an array Value owning a fresh container.
func NewArray(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{Kind: KindArray, C: newArrayContainer(cp)}
}

// NewMap builds a map Value owning a fresh container.
func NewMap() Value {
	return Value{Kind: KindMap, C: newMapContainer(make(map[any]Value))}
}

// Copy shares the underlying container (increments its refcount) rather
// than deep-copying array/map contents; scalars copy by value already.
func Copy(v Value) Value {
	if v.C != nil {
		v.C.refs++
	}
	return v
}

// Release decrements a shared container's refcount; once it drops to
// zero the caller is free to drop all references to it (Go's GC reclaims
// the backing slice/map once unreferenced — refs here models the
// cross-language COW contract, not memory safety).
func Release(v Value) {
	if v.C != nil {
		v.C.refs--
	}
}

// own returns a container this Value can mutate in place, copying first
// if more than one Value currently shares it.
func own(v *Value) *Container {
	if v.C.refs > 1 {
		if v.C.isMap {
			nm := make(map[any]Value, len(v.C.m))
			for k, e := range v.C.m {
				nm[k] = e
			}
			v.C.refs--
			v.C = newMapContainer(nm)
		} else {
			na := make([]Value, len(v.C.arr))
			copy(na, v.C.arr)
			v.C.refs--
			v.C = newArrayContainer(na)
		}
	}
	v.C.gen++
	return v.C
}

// GetContainerElement reads an array index or map key without binding a
// reference.
func GetContainerElement(v Value, key any) Value {
	if v.C == nil {
		return Nil
	}
	if v.C.isMap {
		if e, ok := v.C.m[key]; ok {
			return e
		}
		return Nil
	}
	idx, ok := key.(int)
	if !ok || idx < 0 || idx >= len(v.C.arr) {
		return Nil
	}
	return v.C.arr[idx]
}

// Index yields a Ref binding the caller to one array/map element; writing
// through the ref triggers copy-on-write if the container is shared.
func Index(v Value, key any) Value {
	return Value{Kind: KindRef, R: Ref{Container: v.C, Key: key}}
}

// ArrayLen reports an array's element count, or 0 for anything else.
func ArrayLen(v Value) int {
	if v.C == nil || v.C.isMap {
		return 0
	}
	return len(v.C.arr)
}

// ArrayElements returns a copy of an array's elements in order, for
// callers (the serializer, debug dumps) that need to walk the whole
// container rather than index one element at a time.
func ArrayElements(v Value) []Value {
	if v.C == nil || v.C.isMap {
		return nil
	}
	out := make([]Value, len(v.C.arr))
	copy(out, v.C.arr)
	return out
}

// MapPair is one entry of a map's contents, for iteration.
type MapPair struct {
	Key any
	Val Value
}

// MapPairs returns every (key, value) pair in a map container. Order is
// unspecified (it follows Go map iteration), matching the model's
// "maps compare/hash order-independently" contract.
func MapPairs(v Value) []MapPair {
	if v.C == nil || !v.C.isMap {
		return nil
	}
	out := make([]MapPair, 0, len(v.C.m))
	for k, val := range v.C.m {
		out = append(out, MapPair{Key: k, Val: val})
	}
	return out
}

// SetArrayLength grows or shrinks an array in place, copy-on-write. Growth
// pads with Nil; shrinkage drops trailing elements (any outstanding refs
// to those slots later deref to Nil because their index is out of range).
func SetArrayLength(v *Value, n int) {
	if v.C == nil || v.C.isMap {
		return
	}
	c := own(v)
	if n <= len(c.arr) {
		c.arr = c.arr[:n]
		return
	}
	grown := make([]Value, n)
	copy(grown, c.arr)
	c.arr = grown
}

// SetElement writes through a ref, copy-on-writing the container first if
// it is shared by more than this ref's owner.
func SetElement(ref Ref, val Value) {
	if ref.Container == nil {
		return
	}
	if ref.Container.isMap {
		ref.Container.m[ref.Key] = val
		ref.Container.gen++
		return
	}
	idx, ok := ref.Key.(int)
	if !ok || idx < 0 {
		return
	}
	if idx >= len(ref.Container.arr) {
		grown := make([]Value, idx+1)
		copy(grown, ref.Container.arr)
		ref.Container.arr = grown
	}
	ref.Container.arr[idx] = val
	ref.Container.gen++
}

// Deref follows a ref chain (a ref may itself point at a slot holding
// another ref) until it reaches a non-ref Value; a ref to a missing
// element resolves to Nil.
func Deref(v Value) Value {
	seen := 0
	for v.Kind == KindRef {
		seen++
		if seen > 64 { // runaway cycle guard; refs never legitimately chain this deep
			return Nil
		}
		if v.R.Container == nil {
			return Nil
		}
		v = GetContainerElement(Value{Kind: KindArray, C: v.R.Container}, v.R.Key)
	}
	return v
}

// Strictness selects how Compare treats values of differing dynamic
// shape.
type Strictness int

const (
	// StrictPointerEqual: arrays/maps/objects compare equal only if they
	// share the same backing container/handle.
	StrictPointerEqual Strictness = iota
	// StrictDuckCompatible: containers compare equal if their contents
	// compare equal element-wise, ignoring Kind mismatches between
	// numeric-ish variants (int/bool/id all compare by underlying int64).
	StrictDuckCompatible
	// StrictTypeEqual: like DuckCompatible but Kind must match exactly.
	StrictTypeEqual
)

// Compare reports whether a and b are equal under the given strictness
// mode.
func Compare(a, b Value, mode Strictness) bool {
	if mode != StrictDuckCompatible && a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return b.Kind == KindNil
	case KindInt, KindID:
		return numeric(a) == numeric(b)
	case KindBool:
		if mode == StrictDuckCompatible {
			return numeric(a) == numeric(b)
		}
		return a.B == b.B
	case KindObject:
		return a.Obj == b.Obj
	case KindString:
		if a.Str == nil || b.Str == nil {
			return a.Str == b.Str
		}
		if mode == StrictPointerEqual {
			return a.Str == b.Str
		}
		return *a.Str == *b.Str
	case KindArray:
		return compareArray(a, b, mode)
	case KindMap:
		return compareMap(a, b, mode)
	case KindRef:
		return a.R.Container == b.R.Container && a.R.Key == b.R.Key
	}
	return false
}

func numeric(v Value) int64 {
	switch v.Kind {
	case KindBool:
		if v.B {
			return 1
		}
		return 0
	default:
		return v.I
	}
}

func compareArray(a, b Value, mode Strictness) bool {
	if mode == StrictPointerEqual {
		return a.C == b.C
	}
	if a.C == nil || b.C == nil {
		return a.C == b.C
	}
	if len(a.C.arr) != len(b.C.arr) {
		return false
	}
	for i := range a.C.arr {
		if !Compare(a.C.arr[i], b.C.arr[i], mode) {
			return false
		}
	}
	return true
}

func compareMap(a, b Value, mode Strictness) bool {
	if mode == StrictPointerEqual {
		return a.C == b.C
	}
	if a.C == nil || b.C == nil {
		return a.C == b.C
	}
	if len(a.C.m) != len(b.C.m) {
		return false
	}
	for k, av := range a.C.m {
		bv, ok := b.C.m[k]
		if !ok || !Compare(av, bv, mode) {
			return false
		}
	}
	return true
}

// Hash computes an FNV-style combined hash. Map contents hash
// order-independently by XOR-folding each entry's hash rather than
// feeding entries into the hasher in iteration order.
func Hash(v Value) uint64 {
	h := fnv.New64a()
	hashInto(h, v)
	return h.Sum64()
}

func hashInto(h io.Writer, v Value) {
	writeU8(h, byte(v.Kind))
	switch v.Kind {
	case KindInt, KindID:
		writeI64(h, v.I)
	case KindBool:
		writeI64(h, numeric(v))
	case KindObject:
		writeI64(h, int64(v.Obj.Index))
		writeI64(h, int64(v.Obj.Gen))
	case KindString:
		if v.Str != nil {
			h.Write([]byte(*v.Str))
		}
	case KindArray:
		if v.C != nil {
			for _, e := range v.C.arr {
				hashInto(h, e)
			}
		}
	case KindMap:
		if v.C != nil {
			var acc uint64
			for k, e := range v.C.m {
				eh := fnv.New64a()
				writeAny(eh, k)
				hashInto(eh, e)
				acc ^= eh.Sum64()
			}
			writeI64(h, int64(acc))
		}
	}
}

func writeAny(h io.Writer, k any) {
	switch t := k.(type) {
	case int:
		writeI64(h, int64(t))
	case string:
		h.Write([]byte(t))
	default:
		writeU8(h, 0)
	}
}

func writeU8(h io.Writer, b byte) {
	h.Write([]byte{b})
}

func writeI64(h io.Writer, i int64) {
	var buf [8]byte
	for n := 0; n < 8; n++ {
		buf[n] = byte(i >> (8 * n))
	}
	h.Write(buf[:])
}
