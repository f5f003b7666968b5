package inspect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hl7lens/hl7lens-go/pkg/diff"
	"github.com/hl7lens/hl7lens-go/pkg/hl7"
)

const sample = "MSH|^~\\&|SENDER|FAC|RECV|FAC|20240101120000||ADT^A01|MSG00001|P|2.5\n" +
	"PID|1||12345^^^MR||DOE^JOHN\n" +
	"ZZZ|custom"

func parseSample(t *testing.T, raw string) *hl7.Message {
	t.Helper()
	res := hl7.Parse(raw)
	require.NotNil(t, res.Message)
	return res.Message
}

func TestInspectMessage(t *testing.T) {
	tree := NewInspector(nil).InspectMessage(parseSample(t, sample))

	assert.Equal(t, "ADT^A01", tree.MessageType)
	assert.Equal(t, "MSG00001", tree.ControlID)
	require.Len(t, tree.Segments, 3)

	pid := tree.Segments[1]
	assert.Equal(t, "PID", pid.Name)
	assert.Equal(t, "Patient Identification", pid.Title)
	assert.True(t, pid.Known)
	assert.Equal(t, 2, pid.Line)

	name := pid.Fields[4]
	assert.Equal(t, 5, name.Index)
	assert.Equal(t, "Patient Name", name.Name)
	assert.Equal(t, "DOE^JOHN", name.Value)
	assert.Equal(t, "XPN", name.DataType)
	assert.True(t, name.Required)
	assert.Equal(t, []string{"DOE", "JOHN"}, name.Components)

	zzz := tree.Segments[2]
	assert.False(t, zzz.Known)
	assert.Equal(t, "Field 1", zzz.Fields[0].Name)
}

func TestFormatMessageTree(t *testing.T) {
	insp := NewInspector(nil)
	out := insp.FormatMessageTree(insp.InspectMessage(parseSample(t, sample)), nil)

	assert.Contains(t, out, "Message: ADT^A01  Control ID: MSG00001  Version: 2.5")
	assert.Contains(t, out, "PID Patient Identification  line 2")
	assert.Contains(t, out, `PID-5 Patient Name = "DOE^JOHN" (XPN, len 250, required)`)
	assert.Contains(t, out, `PID-5.2 = "JOHN"`)
	assert.Contains(t, out, "ZZZ (undefined)")
	assert.NotContains(t, out, "PID-2 ", "empty fields are hidden by default")
}

func TestFormatMessageTreeShowEmpty(t *testing.T) {
	insp := NewInspector(nil)
	f := NewFormatter()
	f.ShowEmpty = true
	f.ShowMetadata = false
	out := insp.FormatMessageTree(insp.InspectMessage(parseSample(t, sample)), f)

	assert.Contains(t, out, `PID-2 Patient ID (External) = ""`)
	assert.NotContains(t, out, "(XPN")
}

func TestFormatDiff(t *testing.T) {
	a := parseSample(t, sample)
	b := parseSample(t, strings.Replace(sample, "DOE^JOHN", "DOE^JANE", 1)+"\nNK1|1|DOE^MARY")
	res := diff.Compare(a, b)

	insp := NewInspector(nil)
	out := insp.FormatDiff(res, a.Version, b.Version, nil, false)

	assert.Contains(t, out, "~ PID Patient Identification")
	assert.Contains(t, out, `~ PID-5 (Patient Name): "DOE^JOHN" -> "DOE^JANE"`)
	assert.Contains(t, out, "+ NK1")
	assert.NotContains(t, out, "MSH", "common segments are hidden by default")
	assert.Contains(t, out, "1 added, 0 removed, 1 modified, 2 common")

	all := insp.FormatDiff(res, a.Version, b.Version, nil, true)
	assert.Contains(t, all, "  MSH Message Header")
}

func TestDefinitionRows(t *testing.T) {
	insp := NewInspector(nil)

	rows, err := insp.DefinitionRows("PID", "2.5")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, 0, rows[0].Index)
	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i-1].Index, rows[i].Index)
	}

	_, err = insp.DefinitionRows("ZZZ", "2.5")
	assert.ErrorIs(t, err, ErrSegmentNotFound)

	table := NewFormatter().FormatDefinitionTable(rows)
	assert.Contains(t, table, "Patient Name")
	assert.Contains(t, table, "repeatable")
}

func TestFieldDefinition(t *testing.T) {
	insp := NewInspector(nil)

	fd, err := insp.FieldDefinition("PID", 5, "2.5")
	require.NoError(t, err)
	assert.Equal(t, "Patient Name", fd.Name)

	_, err = insp.FieldDefinition("PID", 999, "2.5")
	assert.ErrorIs(t, err, ErrFieldNotFound)

	_, err = insp.FieldDefinition("ZZZ", 1, "2.5")
	assert.ErrorIs(t, err, ErrSegmentNotFound)
}

func TestFormatDiagnostics(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, "No problems found.\n", f.FormatDiagnostics(nil))

	idx := 3
	out := f.FormatDiagnostics([]hl7.Diagnostic{
		{Severity: hl7.SeverityError, Message: hl7.MsgFieldRequired, Line: 2, SegmentName: "PID", FieldIndex: &idx},
	})
	assert.Equal(t, "  error line 2 PID-3: Field is required.\n", out)
}

func TestPaletteEnabled(t *testing.T) {
	p := NewPalette(true)
	assert.NotEqual(t, "x", p.Added.Sprint("x"))
	assert.Equal(t, "x", NewPalette(false).Added.Sprint("x"))
}

func TestFieldName(t *testing.T) {
	insp := NewInspector(nil)
	assert.Equal(t, "Patient Name", FieldName(insp.Definitions(), "PID", 5, "2.5"))
	assert.Equal(t, "Field 99", FieldName(insp.Definitions(), "PID", 99, "2.5"))
	assert.Equal(t, "Field 1", FieldName(nil, "PID", 1, "2.5"))
	assert.Equal(t, "PID-5", FieldLabel("PID", 5))
	assert.Equal(t, "", SegmentTitle(nil, "PID", "2.5"))
}
