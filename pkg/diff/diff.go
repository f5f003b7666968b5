// Package diff compares two parsed HL7 messages segment by segment and
// field by field.
//
// Segments are aligned greedily: each segment of the first message is paired
// with the first unmatched segment of the same name in the second message.
// No identifier fields are consulted, so repeated segments (two NK1, say)
// pair up strictly in the order each message presents them.
package diff

import (
	"math"
	"sort"

	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

// Type classifies a segment or field difference.
type Type string

const (
	Added    Type = "added"
	Removed  Type = "removed"
	Modified Type = "modified"
	Common   Type = "common"
)

// FieldDiff is the comparison of one field index of a matched segment pair.
type FieldDiff struct {
	FieldIndex int  `json:"fieldIndex" yaml:"fieldIndex"`
	DiffType   Type `json:"diffType" yaml:"diffType"`

	// ValueA is set for common, modified and removed fields.
	ValueA *string `json:"valueA,omitempty" yaml:"valueA,omitempty"`

	// ValueB is set for modified and added fields.
	ValueB *string `json:"valueB,omitempty" yaml:"valueB,omitempty"`
}

// SegmentDiff is the comparison of one segment.
type SegmentDiff struct {
	SegmentName string `json:"segmentName" yaml:"segmentName"`
	Type        Type   `json:"type" yaml:"type"`

	FieldsA []hl7.Field `json:"fieldsA,omitempty" yaml:"fieldsA,omitempty"`
	FieldsB []hl7.Field `json:"fieldsB,omitempty" yaml:"fieldsB,omitempty"`

	// FieldDiffs is only set for matched pairs (common or modified).
	FieldDiffs []FieldDiff `json:"fieldDiffs,omitempty" yaml:"fieldDiffs,omitempty"`

	OriginalIndexA *int `json:"originalIndexA,omitempty" yaml:"originalIndexA,omitempty"`
	OriginalIndexB *int `json:"originalIndexB,omitempty" yaml:"originalIndexB,omitempty"`
}

// Result is the ordered list of segment differences.
type Result struct {
	Segments []SegmentDiff `json:"segments" yaml:"segments"`
}

// Compare diffs message a against message b. Either may be nil: a nil a
// reports every segment of b as added, a nil b every segment of a as
// removed. The inputs are not modified.
func Compare(a, b *hl7.Message) Result {
	result := Result{Segments: []SegmentDiff{}}

	if a == nil || b == nil {
		if a != nil {
			for i, seg := range a.Segments {
				result.Segments = append(result.Segments, removed(seg, i))
			}
		}
		if b != nil {
			for i, seg := range b.Segments {
				result.Segments = append(result.Segments, added(seg, i))
			}
		}
		return result
	}

	matched := make([]bool, len(b.Segments))

	for i, segA := range a.Segments {
		j := firstUnmatched(b.Segments, matched, segA.Name)
		if j < 0 {
			result.Segments = append(result.Segments, removed(segA, i))
			continue
		}
		matched[j] = true
		segB := b.Segments[j]

		fields := CompareFields(segA.Fields, segB.Fields)
		typ := Common
		for _, fd := range fields {
			if fd.DiffType != Common {
				typ = Modified
				break
			}
		}

		result.Segments = append(result.Segments, SegmentDiff{
			SegmentName:    segA.Name,
			Type:           typ,
			FieldsA:        segA.Fields,
			FieldsB:        segB.Fields,
			FieldDiffs:     fields,
			OriginalIndexA: intPtr(i),
			OriginalIndexB: intPtr(j),
		})
	}

	for j, segB := range b.Segments {
		if !matched[j] {
			result.Segments = append(result.Segments, added(segB, j))
		}
	}

	sort.SliceStable(result.Segments, func(i, j int) bool {
		return less(result.Segments[i], result.Segments[j])
	})

	return result
}

// CompareFields diffs two field lists index by index. Positions present on
// only one side are reported as added or removed even when the value is
// empty.
func CompareFields(a, b []hl7.Field) []FieldDiff {
	n := max(len(a), len(b))
	out := make([]FieldDiff, 0, n)

	for i := 0; i < n; i++ {
		switch {
		case i < len(a) && i < len(b):
			if a[i].Value == b[i].Value {
				out = append(out, FieldDiff{FieldIndex: i, DiffType: Common, ValueA: strPtr(a[i].Value)})
			} else {
				out = append(out, FieldDiff{FieldIndex: i, DiffType: Modified, ValueA: strPtr(a[i].Value), ValueB: strPtr(b[i].Value)})
			}
		case i < len(a):
			out = append(out, FieldDiff{FieldIndex: i, DiffType: Removed, ValueA: strPtr(a[i].Value)})
		default:
			out = append(out, FieldDiff{FieldIndex: i, DiffType: Added, ValueB: strPtr(b[i].Value)})
		}
	}
	return out
}

func firstUnmatched(segs []hl7.Segment, matched []bool, name string) int {
	for j := range segs {
		if !matched[j] && segs[j].Name == name {
			return j
		}
	}
	return -1
}

func removed(seg hl7.Segment, i int) SegmentDiff {
	return SegmentDiff{
		SegmentName:    seg.Name,
		Type:           Removed,
		FieldsA:        seg.Fields,
		OriginalIndexA: intPtr(i),
	}
}

func added(seg hl7.Segment, j int) SegmentDiff {
	return SegmentDiff{
		SegmentName:    seg.Name,
		Type:           Added,
		FieldsB:        seg.Fields,
		OriginalIndexB: intPtr(j),
	}
}

// sortKey is the index in A when present, else the index in B.
func (d SegmentDiff) sortKey() int {
	switch {
	case d.OriginalIndexA != nil:
		return *d.OriginalIndexA
	case d.OriginalIndexB != nil:
		return *d.OriginalIndexB
	default:
		return math.MaxInt
	}
}

// less orders by position; at equal positions removed comes before added.
func less(x, y SegmentDiff) bool {
	kx, ky := x.sortKey(), y.sortKey()
	if kx != ky {
		return kx < ky
	}
	return x.Type == Removed && y.Type == Added
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}
