// Package vector implements the typed numeric vector value used throughout
// annidx: a tagged union over five element kinds with content-based hashing,
// equality and ordering, plus the distance kernel in distance.go.
package vector

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies which of the five element representations a Vector holds.
// The ordering below (F64 < F32 < I64 < I32 < I16) is the vector's primary
// sort key whenever two vectors of different kinds are compared.
type Kind uint8

const (
	KindF64 Kind = iota
	KindF32
	KindI64
	KindI32
	KindI16
)

func (k Kind) String() string {
	switch k {
	case KindF64:
		return "f64"
	case KindF32:
		return "f32"
	case KindI64:
		return "i64"
	case KindI32:
		return "i32"
	case KindI16:
		return "i16"
	default:
		return "unknown"
	}
}

// Number is a small tagged scalar standing in for the caller's numeric
// literal type. It carries enough information to be narrowed into any of
// the five Vector element kinds.
type Number struct {
	isFloat bool
	f       float64
	i       int64
}

func Float64(f float64) Number { return Number{isFloat: true, f: f} }
func Int64(i int64) Number     { return Number{isFloat: false, i: i} }

// ToFloat widens the number to float64, exactly (ints are always exactly
// representable up to 2^53; beyond that this is the same approximation Go's
// own int64->float64 conversion performs).
func (n Number) ToFloat() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// ToInt narrows the number to int64, truncating toward zero when the
// source was a float (matching Go's float64->int64 conversion rule).
func (n Number) ToInt() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

// Vector is a tagged union over five element kinds. Go has no sum types, so
// exactly one of the five slices below is non-nil at any time; this is the
// mechanical translation of the five-armed enum the value was ported from.
type Vector struct {
	kind Kind
	f64  []float64
	f32  []float32
	i64  []int64
	i32  []int32
	i16  []int16
}

// New allocates an empty Vector of the given kind with the given capacity
// hint.
func New(kind Kind, capacity int) *Vector {
	v := &Vector{kind: kind}
	switch kind {
	case KindF64:
		v.f64 = make([]float64, 0, capacity)
	case KindF32:
		v.f32 = make([]float32, 0, capacity)
	case KindI64:
		v.i64 = make([]int64, 0, capacity)
	case KindI32:
		v.i32 = make([]int32, 0, capacity)
	case KindI16:
		v.i16 = make([]int16, 0, capacity)
	default:
		panic(fmt.Sprintf("vector: unknown kind %d", kind))
	}
	return v
}

// FromFloat64 builds an f64-kinded Vector directly from a slice, the common
// case for callers working with standard embeddings.
func FromFloat64(values []float64) *Vector {
	v := New(KindF64, len(values))
	v.f64 = append(v.f64, values...)
	return v
}

// Kind reports the element representation of v.
func (v *Vector) Kind() Kind { return v.kind }

// Len reports the number of elements in v.
func (v *Vector) Len() int {
	switch v.kind {
	case KindF64:
		return len(v.f64)
	case KindF32:
		return len(v.f32)
	case KindI64:
		return len(v.i64)
	case KindI32:
		return len(v.i32)
	case KindI16:
		return len(v.i16)
	default:
		return 0
	}
}

// IsNull reports whether every element of v compares equal to the additive
// identity (zero), matching the source's TreeVector::is_null. An empty
// vector is null vacuously; so is any all-zero vector regardless of length.
func (v *Vector) IsNull() bool {
	n := v.Len()
	switch v.kind {
	case KindF64:
		for i := 0; i < n; i++ {
			if v.f64[i] != 0 {
				return false
			}
		}
	case KindF32:
		for i := 0; i < n; i++ {
			if v.f32[i] != 0 {
				return false
			}
		}
	case KindI64:
		for i := 0; i < n; i++ {
			if v.i64[i] != 0 {
				return false
			}
		}
	case KindI32:
		for i := 0; i < n; i++ {
			if v.i32[i] != 0 {
				return false
			}
		}
	case KindI16:
		for i := 0; i < n; i++ {
			if v.i16[i] != 0 {
				return false
			}
		}
	}
	return true
}

// Append narrows or widens n into v's element kind and appends it.
func (v *Vector) Append(n Number) {
	switch v.kind {
	case KindF64:
		v.f64 = append(v.f64, n.ToFloat())
	case KindF32:
		v.f32 = append(v.f32, float32(n.ToFloat()))
	case KindI64:
		v.i64 = append(v.i64, n.ToInt())
	case KindI32:
		v.i32 = append(v.i32, int32(n.ToInt()))
	case KindI16:
		v.i16 = append(v.i16, int16(n.ToInt()))
	}
}

// At returns the i'th element as a Number.
func (v *Vector) At(i int) Number {
	switch v.kind {
	case KindF64:
		return Float64(v.f64[i])
	case KindF32:
		return Float64(float64(v.f32[i]))
	case KindI64:
		return Int64(v.i64[i])
	case KindI32:
		return Int64(int64(v.i32[i]))
	case KindI16:
		return Int64(int64(v.i16[i]))
	default:
		panic("vector: At on unknown kind")
	}
}

// Floats projects v's elements to float64, the common representation the
// distance kernel's numeric metrics operate on.
func (v *Vector) Floats() []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.At(i).ToFloat()
	}
	return out
}

// bitsOf returns the raw bit pattern of element i, used by Hash, Jaccard and
// set-membership comparisons. Integers are zero-extended from their own
// width to 64 bits (their bit pattern IS their value, there is nothing else
// to hash); floats use their IEEE-754 bit pattern, with -0 folded into +0 so
// the two zeros hash and compare alike. NaNs keep their payload bits.
func (v *Vector) bitsOf(i int) uint64 {
	switch v.kind {
	case KindF64:
		f := v.f64[i]
		if f == 0 {
			f = 0
		}
		return math.Float64bits(f)
	case KindF32:
		f := v.f32[i]
		if f == 0 {
			f = 0
		}
		return uint64(math.Float32bits(f))
	case KindI64:
		return uint64(v.i64[i])
	case KindI32:
		return uint64(uint32(v.i32[i]))
	case KindI16:
		return uint64(uint16(v.i16[i]))
	default:
		return 0
	}
}

// Hash produces a content-based digest: the kind tag mixed with the bit
// pattern of every element, via xxhash rather than a hand-rolled mix.
func (v *Vector) Hash() uint64 {
	d := xxhash.New()
	var tag [1]byte
	tag[0] = byte(v.kind)
	d.Write(tag[:])
	var buf [8]byte
	n := v.Len()
	for i := 0; i < n; i++ {
		bits := v.bitsOf(i)
		buf[0] = byte(bits)
		buf[1] = byte(bits >> 8)
		buf[2] = byte(bits >> 16)
		buf[3] = byte(bits >> 24)
		buf[4] = byte(bits >> 32)
		buf[5] = byte(bits >> 40)
		buf[6] = byte(bits >> 48)
		buf[7] = byte(bits >> 56)
		d.Write(buf[:])
	}
	return d.Sum64()
}

// Equal reports content equality: same kind, same length, and every element
// equal. Floating point NaNs are treated as equal to each other (and only
// to each other), matching the value's use as a hash-map key where
// `NaN != NaN` would silently break lookups.
func (v *Vector) Equal(o *Vector) bool {
	if v.kind != o.kind || v.Len() != o.Len() {
		return false
	}
	n := v.Len()
	switch v.kind {
	case KindF64:
		for i := 0; i < n; i++ {
			a, b := v.f64[i], o.f64[i]
			if math.IsNaN(a) && math.IsNaN(b) {
				continue
			}
			if a != b {
				return false
			}
		}
	case KindF32:
		for i := 0; i < n; i++ {
			a, b := v.f32[i], o.f32[i]
			if isNaN32(a) && isNaN32(b) {
				continue
			}
			if a != b {
				return false
			}
		}
	case KindI64:
		for i := 0; i < n; i++ {
			if v.i64[i] != o.i64[i] {
				return false
			}
		}
	case KindI32:
		for i := 0; i < n; i++ {
			if v.i32[i] != o.i32[i] {
				return false
			}
		}
	case KindI16:
		for i := 0; i < n; i++ {
			if v.i16[i] != o.i16[i] {
				return false
			}
		}
	}
	return true
}

func isNaN32(f float32) bool { return f != f }

// Compare defines a total order over Vector values: kind first (per the
// fixed Kind ordering above), then length, then element-by-element. NaN
// sorts as greater than every other float including +Inf, and equal to
// another NaN, so Compare is a true total order usable as a map/tree key
// even over vectors containing NaN payloads.
func (v *Vector) Compare(o *Vector) int {
	if v.kind != o.kind {
		if v.kind < o.kind {
			return -1
		}
		return 1
	}
	if v.Len() != o.Len() {
		if v.Len() < o.Len() {
			return -1
		}
		return 1
	}
	n := v.Len()
	for i := 0; i < n; i++ {
		if c := cmpNumber(v.kind, v, o, i); c != 0 {
			return c
		}
	}
	return 0
}

func cmpNumber(kind Kind, v, o *Vector, i int) int {
	switch kind {
	case KindF64:
		return cmpFloat(v.f64[i], o.f64[i])
	case KindF32:
		return cmpFloat(float64(v.f32[i]), float64(o.f32[i]))
	case KindI64:
		return cmpInt(v.i64[i], o.i64[i])
	case KindI32:
		return cmpInt(int64(v.i32[i]), int64(o.i32[i]))
	case KindI16:
		return cmpInt(int64(v.i16[i]), int64(o.i16[i]))
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
