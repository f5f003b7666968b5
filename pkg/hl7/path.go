package hl7

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Path addresses a value inside a message.
//
//	SEG[(occurrence)]-FIELD[(repetition)][.COMPONENT[.SUBCOMPONENT]]
//
// FIELD is the definition index. Occurrence, repetition, component and
// sub-component are 1-based; a zero value means "not given".
type Path struct {
	Segment      string
	Occurrence   int
	Field        int
	Repetition   int
	Component    int
	SubComponent int
}

// pathRegex groups: 1=segment, 2=occurrence, 3=field, 4=repetition,
// 5=component, 6=sub-component.
var pathRegex = regexp.MustCompile(`^([A-Z0-9]{3})(?:\((\d+)\))?-(\d+)(?:\((\d+)\))?(?:\.(\d+)(?:\.(\d+))?)?$`)

// ParsePath parses a path expression such as "PID-5.1" or "NK1(2)-2".
func ParsePath(s string) (Path, error) {
	m := pathRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return Path{}, fmt.Errorf("invalid path %q: expected SEG[(n)]-FIELD[(r)][.COMP[.SUB]]", s)
	}

	num := func(g string) int {
		if g == "" {
			return 0
		}
		n, _ := strconv.Atoi(g)
		return n
	}

	p := Path{
		Segment:      m[1],
		Occurrence:   num(m[2]),
		Field:        num(m[3]),
		Repetition:   num(m[4]),
		Component:    num(m[5]),
		SubComponent: num(m[6]),
	}
	if m[2] != "" && p.Occurrence == 0 {
		return Path{}, fmt.Errorf("invalid path %q: occurrence is 1-based", s)
	}
	if m[4] != "" && p.Repetition == 0 {
		return Path{}, fmt.Errorf("invalid path %q: repetition is 1-based", s)
	}
	if (m[5] != "" && p.Component == 0) || (m[6] != "" && p.SubComponent == 0) {
		return Path{}, fmt.Errorf("invalid path %q: components are 1-based", s)
	}
	return p, nil
}

// String returns the canonical form of the path.
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString(p.Segment)
	if p.Occurrence > 0 {
		fmt.Fprintf(&sb, "(%d)", p.Occurrence)
	}
	fmt.Fprintf(&sb, "-%d", p.Field)
	if p.Repetition > 0 {
		fmt.Fprintf(&sb, "(%d)", p.Repetition)
	}
	if p.Component > 0 {
		fmt.Fprintf(&sb, ".%d", p.Component)
		if p.SubComponent > 0 {
			fmt.Fprintf(&sb, ".%d", p.SubComponent)
		}
	}
	return sb.String()
}

// Get returns the value at path. Without a repetition or component the raw
// field value is returned. The second result is false when the path is
// invalid or addresses something the message does not contain.
func (m *Message) Get(path string) (string, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return "", false
	}
	return m.Lookup(p)
}

// Lookup resolves a parsed path.
func (m *Message) Lookup(p Path) (string, bool) {
	occ := p.Occurrence
	if occ == 0 {
		occ = 1
	}
	field := m.Segment(p.Segment, occ).Field(p.Field)
	if field == nil {
		return "", false
	}
	if p.Repetition == 0 && p.Component == 0 {
		return field.Value, true
	}

	rep := p.Repetition
	if rep == 0 {
		rep = 1
	}
	if rep > len(field.Repetitions) {
		return "", false
	}
	if p.Component == 0 {
		return field.Repetitions[rep-1], true
	}

	comps := field.Components
	if rep > 1 {
		comps = strings.Split(field.Repetitions[rep-1], m.EncodingCharacters.ComponentSeparator)
	}
	if p.Component > len(comps) {
		return "", false
	}
	comp := comps[p.Component-1]
	if p.SubComponent == 0 {
		return comp, true
	}

	subs := strings.Split(comp, m.EncodingCharacters.SubComponentSeparator)
	if p.SubComponent > len(subs) {
		return "", false
	}
	return subs[p.SubComponent-1], true
}
