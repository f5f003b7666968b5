package diff

// Summary counts segment differences by type.
type Summary struct {
	Added    int `json:"added" yaml:"added"`
	Removed  int `json:"removed" yaml:"removed"`
	Modified int `json:"modified" yaml:"modified"`
	Common   int `json:"common" yaml:"common"`

	// ChangedFields is the number of non-common field diffs across all
	// matched segment pairs.
	ChangedFields int `json:"changedFields" yaml:"changedFields"`
}

// Total returns the number of segment diffs.
func (s Summary) Total() int {
	return s.Added + s.Removed + s.Modified + s.Common
}

// Summary counts the result's segment diffs by type.
func (r Result) Summary() Summary {
	var s Summary
	for _, sd := range r.Segments {
		switch sd.Type {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Modified:
			s.Modified++
		case Common:
			s.Common++
		}
		for _, fd := range sd.FieldDiffs {
			if fd.DiffType != Common {
				s.ChangedFields++
			}
		}
	}
	return s
}

// Identical reports whether every segment diff is common.
func (r Result) Identical() bool {
	for _, sd := range r.Segments {
		if sd.Type != Common {
			return false
		}
	}
	return true
}

// Changes returns the segment diffs that are not common.
func (r Result) Changes() []SegmentDiff {
	var out []SegmentDiff
	for _, sd := range r.Segments {
		if sd.Type != Common {
			out = append(out, sd)
		}
	}
	return out
}

// ChangedFields returns the field diffs that are not common.
func (d SegmentDiff) ChangedFields() []FieldDiff {
	var out []FieldDiff
	for _, fd := range d.FieldDiffs {
		if fd.DiffType != Common {
			out = append(out, fd)
		}
	}
	return out
}
