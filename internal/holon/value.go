// Package holon implements the data-bearing entity at the center of the
// engine: the property map, relationship collections, and phase-specific
// reference types described in spec.md §3 and §4.1-§4.2.
package holon

import (
	"fmt"
	"strings"
	"unicode"
)

// MapString is the engine's canonical string value type, distinct from a Go
// string so BaseValue's variants stay closed over the set spec.md §3 names.
type MapString string

// PropertyName is a property map key, always stored in UpperCamelCase.
type PropertyName string

// RelationshipName is a relationship map key, always stored in
// SCREAMING_SNAKE_CASE.
type RelationshipName string

// PropertyNameLike is accepted at every property-map ingress point: a bare
// string, an already-canonical PropertyName, or any enum-like type that
// stringifies to its name. This is the "ergonomic properties" behavior from
// SPEC_FULL.md's supplemented-features section (scenario 5, spec.md §8).
type PropertyNameLike interface{}

// CanonicalPropertyName coerces name into UpperCamelCase, accepting string,
// PropertyName, or fmt.Stringer.
func CanonicalPropertyName(name PropertyNameLike) PropertyName {
	return PropertyName(toUpperCamelCase(stringOf(name)))
}

// RelationshipNameLike mirrors PropertyNameLike for relationship names.
type RelationshipNameLike interface{}

// CanonicalRelationshipName coerces name into SCREAMING_SNAKE_CASE.
func CanonicalRelationshipName(name RelationshipNameLike) RelationshipName {
	return RelationshipName(toScreamingSnakeCase(stringOf(name)))
}

func stringOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case MapString:
		return string(t)
	case PropertyName:
		return string(t)
	case RelationshipName:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// toUpperCamelCase splits on any run of non-alphanumeric characters (and on
// existing case transitions for already-camel or snake input) and
// capitalizes each resulting word.
func toUpperCamelCase(s string) string {
	words := splitWords(s)
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

func toScreamingSnakeCase(s string) string {
	words := splitWords(s)
	upper := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			upper = append(upper, strings.ToUpper(w))
		}
	}
	return strings.Join(upper, "_")
}

// splitWords breaks a string into words on any rune that is neither a letter
// nor a digit and on lower-to-upper case transitions, keeping each word's
// case: "AUTHORED_BY", "authoredBy", and "authored_by" split to
// ["AUTHORED", "BY"], ["authored", "By"], and ["authored", "by"].
func splitWords(s string) []string {
	var words []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
			continue
		}
		if i > 0 && current.Len() > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) && unicode.IsUpper(r) {
				words = append(words, current.String())
				current.Reset()
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

// BaseValueKind discriminates the BaseValue union.
type BaseValueKind int

const (
	BaseValueString BaseValueKind = iota
	BaseValueInteger
	BaseValueBoolean
	BaseValueBytes
	BaseValueEnum
	BaseValueArray
)

// BaseValue is the closed union of property value shapes named in spec.md
// §3: String / Integer / Boolean / Bytes / Enum / fixed-length arrays of
// these. A struct-of-kind rather than an interface keeps equality
// (essential-content comparisons, spec.md §4.1) a field-by-field comparison,
// implemented by Equal below; the Bytes and Array slices make the struct
// unusable with ==.
type BaseValue struct {
	Kind    BaseValueKind
	Str     MapString
	Int     int64
	Bool    bool
	Bytes   []byte
	Enum    string
	Array   []BaseValue
}

func NewStringValue(s string) BaseValue   { return BaseValue{Kind: BaseValueString, Str: MapString(s)} }
func NewIntegerValue(i int64) BaseValue   { return BaseValue{Kind: BaseValueInteger, Int: i} }
func NewBooleanValue(b bool) BaseValue    { return BaseValue{Kind: BaseValueBoolean, Bool: b} }
func NewBytesValue(b []byte) BaseValue    { return BaseValue{Kind: BaseValueBytes, Bytes: append([]byte(nil), b...)} }
func NewEnumValue(v string) BaseValue     { return BaseValue{Kind: BaseValueEnum, Enum: v} }
func NewArrayValue(vs ...BaseValue) BaseValue {
	return BaseValue{Kind: BaseValueArray, Array: append([]BaseValue(nil), vs...)}
}

// AsString returns the underlying string for String/Enum values.
func (v BaseValue) AsString() (string, bool) {
	switch v.Kind {
	case BaseValueString:
		return string(v.Str), true
	case BaseValueEnum:
		return v.Enum, true
	default:
		return "", false
	}
}

// Equal reports whether two BaseValues are structurally identical.
func (v BaseValue) Equal(other BaseValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case BaseValueString:
		return v.Str == other.Str
	case BaseValueInteger:
		return v.Int == other.Int
	case BaseValueBoolean:
		return v.Bool == other.Bool
	case BaseValueBytes:
		return string(v.Bytes) == string(other.Bytes)
	case BaseValueEnum:
		return v.Enum == other.Enum
	case BaseValueArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// PropertyMap maps canonical PropertyNames to an optional BaseValue. A
// missing entry and an entry present with a nil-ish value are distinct — the
// map simply omits properties that have never been set.
type PropertyMap map[PropertyName]BaseValue

// Clone returns a deep copy of the property map.
func (m PropertyMap) Clone() PropertyMap {
	var cloneValue func(v BaseValue) BaseValue
	cloneValue = func(v BaseValue) BaseValue {
		if v.Bytes != nil {
			v.Bytes = append([]byte(nil), v.Bytes...)
		}
		if v.Array != nil {
			arr := make([]BaseValue, len(v.Array))
			for i, e := range v.Array {
				arr[i] = cloneValue(e)
			}
			v.Array = arr
		}
		return v
	}
	out := make(PropertyMap, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Equal reports whether two property maps hold the same keys and values.
func (m PropertyMap) Equal(other PropertyMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// KeyPropertyName is the conventional property holding a holon's base key.
const KeyPropertyName PropertyName = "Key"
