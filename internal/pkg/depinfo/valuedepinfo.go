// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package depinfo

// Field names a struct field, a constant array/slice/map index, or the
// catch-all AnyField used for non-constant indices and for widening.
type Field struct {
	Name string
}

// AnyField stands in for "some index I can't resolve statically". Reading
// it is conservative (joins every tracked field); writing it is
// conservative too (joins into every tracked field).
var AnyField = Field{Name: "*"}

// ValueDepInfo is a DepInfo for an aggregate value together with a
// field-indexed map of per-field ValueDepInfo. The aggregate's own DepInfo
// is always the join of its own set-up DepInfo and its fields' DepInfo
// values when read as a whole.
type ValueDepInfo struct {
	DepInfo
	Fields map[Field]*ValueDepInfo
}

// NewValueDepInfo wraps a plain DepInfo with no field structure.
func NewValueDepInfo(d DepInfo) *ValueDepInfo {
	return &ValueDepInfo{DepInfo: d}
}

// IndepValue returns an InputIndep leaf ValueDepInfo.
func IndepValue() *ValueDepInfo { return NewValueDepInfo(Indep()) }

// Clone performs a deep copy, since ValueDepInfo is mutated in place during
// block analysis (unlike the immutable DepInfo).
func (v *ValueDepInfo) Clone() *ValueDepInfo {
	if v == nil {
		return IndepValue()
	}
	out := &ValueDepInfo{DepInfo: v.DepInfo}
	if len(v.Fields) > 0 {
		out.Fields = make(map[Field]*ValueDepInfo, len(v.Fields))
		for f, sub := range v.Fields {
			out.Fields[f] = sub.Clone()
		}
	}
	return out
}

// JoinValue returns the join of a and b: the carried DepInfo is joined directly,
// and each field is joined pairwise; a field present in only one operand is
// joined against an implicit InputIndep leaf, so a field missing on one
// side never silently wins over what the other side observed.
func JoinValue(a, b *ValueDepInfo) *ValueDepInfo {
	if a == nil {
		a = IndepValue()
	}
	if b == nil {
		b = IndepValue()
	}
	out := &ValueDepInfo{DepInfo: Join(a.DepInfo, b.DepInfo)}
	if len(a.Fields) == 0 && len(b.Fields) == 0 {
		return out
	}
	out.Fields = make(map[Field]*ValueDepInfo, len(a.Fields)+len(b.Fields))
	seen := map[Field]struct{}{}
	for f, av := range a.Fields {
		bv := b.Fields[f]
		out.Fields[f] = JoinValue(av, bv)
		seen[f] = struct{}{}
	}
	for f, bv := range b.Fields {
		if _, ok := seen[f]; ok {
			continue
		}
		out.Fields[f] = JoinValue(nil, bv)
	}
	return out
}

// MergeFrom joins other into v in place, widening v's own fields.
func (v *ValueDepInfo) MergeFrom(other *ValueDepInfo) {
	merged := JoinValue(v, other)
	v.DepInfo = merged.DepInfo
	v.Fields = merged.Fields
}

// Field looks up a field by constant name, lazily creating it as InputIndep
// if absent: the field set grows on demand as constant indices are observed.
func (v *ValueDepInfo) Field(f Field) *ValueDepInfo {
	if v.Fields == nil {
		v.Fields = map[Field]*ValueDepInfo{}
	}
	sub, ok := v.Fields[f]
	if !ok {
		sub = IndepValue()
		v.Fields[f] = sub
	}
	return sub
}

// FieldRead returns the ValueDepInfo observed when reading field f. Reading
// AnyField is conservative: it returns the join of every tracked field plus
// the aggregate's own DepInfo, since a non-constant index might select any
// of them.
func (v *ValueDepInfo) FieldRead(f Field) *ValueDepInfo {
	if f == AnyField {
		acc := NewValueDepInfo(v.DepInfo)
		for _, sub := range v.Fields {
			acc = JoinValue(acc, sub)
		}
		return acc
	}
	return v.Field(f)
}

// FieldWrite records that `val` was written to field f. Writing through
// AnyField is conservative: a non-constant index never grows the field set,
// it only widens what's already tracked, so the write joins into every
// field currently present plus a single synthetic AnyField entry so future
// AnyField reads see it too.
func (v *ValueDepInfo) FieldWrite(f Field, val *ValueDepInfo) {
	if f == AnyField {
		for k, sub := range v.Fields {
			sub.MergeFrom(val)
			v.Fields[k] = sub
		}
		v.Field(AnyField).MergeFrom(val)
		return
	}
	v.Field(f).MergeFrom(val)
}

// Flatten returns the DepInfo for the aggregate as a whole: the join of its
// own carried DepInfo and every field's DepInfo.
func (v *ValueDepInfo) Flatten() DepInfo {
	acc := v.DepInfo
	for _, sub := range v.Fields {
		acc = Join(acc, sub.Flatten())
	}
	return acc
}
