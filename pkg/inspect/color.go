package inspect

import "github.com/fatih/color"

// Palette colors terminal output. A disabled palette returns text unchanged.
type Palette struct {
	Header   *color.Color
	Segment  *color.Color
	Name     *color.Color
	Value    *color.Color
	Dim      *color.Color
	Added    *color.Color
	Removed  *color.Color
	Modified *color.Color
	Critical *color.Color
	Error    *color.Color
	Warning  *color.Color
	OK       *color.Color
}

// NewPalette returns the default palette, forced on or off regardless of
// the global color.NoColor setting.
func NewPalette(enabled bool) *Palette {
	p := &Palette{
		Header:   color.New(color.Bold),
		Segment:  color.New(color.FgCyan, color.Bold),
		Name:     color.New(color.FgBlue),
		Value:    color.New(color.FgWhite),
		Dim:      color.New(color.Faint),
		Added:    color.New(color.FgGreen),
		Removed:  color.New(color.FgRed),
		Modified: color.New(color.FgYellow),
		Critical: color.New(color.FgRed, color.Bold),
		Error:    color.New(color.FgRed),
		Warning:  color.New(color.FgYellow),
		OK:       color.New(color.FgGreen, color.Bold),
	}
	for _, c := range p.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Palette) all() []*color.Color {
	return []*color.Color{
		p.Header, p.Segment, p.Name, p.Value, p.Dim,
		p.Added, p.Removed, p.Modified,
		p.Critical, p.Error, p.Warning, p.OK,
	}
}
