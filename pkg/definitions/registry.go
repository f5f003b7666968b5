package definitions

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

//go:embed specs/*.yaml
var specFS embed.FS

// BaselineVersion is the version used when a lookup names a version the
// registry has no entry for.
const BaselineVersion = "2.5"

// Registry holds segment definitions keyed by segment name, then version.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	baseline string
	segments map[string]map[string]*SegmentDefinition
	versions map[string]string // version -> description
}

// New creates an empty registry with the given baseline version.
func New(baseline string) *Registry {
	if baseline == "" {
		baseline = BaselineVersion
	}
	return &Registry{
		baseline: baseline,
		segments: make(map[string]map[string]*SegmentDefinition),
		versions: make(map[string]string),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry built from the embedded manifests.
// Callers that merge extra definitions should use NewEmbedded instead.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewEmbedded()
		if err != nil {
			panic(fmt.Sprintf("loading embedded definitions: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// NewEmbedded returns a new registry holding the embedded manifests, ready
// for LoadFile calls.
func NewEmbedded() (*Registry, error) {
	r := New(BaselineVersion)
	if err := r.LoadFS(specFS, "specs"); err != nil {
		return nil, err
	}
	return r, nil
}

// NewEmbeddedWith returns an embedded registry with the given definition
// files or directories merged in order.
func NewEmbeddedWith(paths ...string) (*Registry, error) {
	r, err := NewEmbedded()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := r.LoadFile(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// GetSegmentDefinition looks up a segment in the default registry.
func GetSegmentDefinition(segmentName, version string) *SegmentDefinition {
	return Default().SegmentDefinition(segmentName, version)
}

// GetFieldDefinition looks up a field in the default registry.
func GetFieldDefinition(segmentName string, fieldIndex int, version string) *FieldDefinition {
	return Default().FieldDefinition(segmentName, fieldIndex, version)
}

// ResolveVersion picks the definition for version out of a segment's
// per-version entries: the exact version if present, else the baseline,
// else nil. The returned string is the version that matched.
func ResolveVersion(byVersion map[string]*SegmentDefinition, version, baseline string) (*SegmentDefinition, string) {
	if len(byVersion) == 0 {
		return nil, ""
	}
	if def, ok := byVersion[version]; ok {
		return def, version
	}
	if def, ok := byVersion[baseline]; ok {
		return def, baseline
	}
	return nil, ""
}

// Baseline returns the fallback version.
func (r *Registry) Baseline() string {
	return r.baseline
}

// SegmentDefinition implements Lookup.
func (r *Registry) SegmentDefinition(segmentName, version string) *SegmentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, _ := ResolveVersion(r.segments[segmentName], version, r.baseline)
	return def
}

// FieldDefinition implements Lookup.
func (r *Registry) FieldDefinition(segmentName string, fieldIndex int, version string) *FieldDefinition {
	return r.SegmentDefinition(segmentName, version).Field(fieldIndex)
}

// Add merges a manifest into the registry. Definitions for a (segment,
// version) pair that already exists are replaced. An invalid manifest
// leaves the registry unchanged.
func (r *Registry) Add(m *Manifest) error {
	if err := m.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.versions[m.Version]; !ok || m.Description != "" {
		r.versions[m.Version] = m.Description
	}
	for name, def := range m.Segments {
		if def.Fields == nil {
			def.Fields = make(map[int]*FieldDefinition)
		}
		byVersion, ok := r.segments[name]
		if !ok {
			byVersion = make(map[string]*SegmentDefinition)
			r.segments[name] = byVersion
		}
		byVersion[m.Version] = def
	}
	return nil
}

func (m *Manifest) validate() error {
	if m.Version == "" {
		return fmt.Errorf("manifest has no version")
	}
	names := make([]string, 0, len(m.Segments))
	for name := range m.Segments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if len(name) != 3 {
			return fmt.Errorf("version %s: invalid segment name %q", m.Version, name)
		}
		def := m.Segments[name]
		if def == nil {
			return fmt.Errorf("version %s: segment %s has no definition", m.Version, name)
		}
		for idx, fd := range def.Fields {
			if fd == nil {
				return fmt.Errorf("version %s: field %s-%d has no definition", m.Version, name, idx)
			}
			if idx < 0 {
				return fmt.Errorf("version %s: invalid field index %s-%d", m.Version, name, idx)
			}
		}
	}
	return nil
}

// LoadManifest parses YAML manifest data and merges it into the registry.
func (r *Registry) LoadManifest(data []byte) error {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}
	return r.Add(&m)
}

// LoadFile merges a YAML manifest file, or every *.yaml file of a
// directory, into the registry.
func (r *Registry) LoadFile(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	if info.IsDir() {
		return r.LoadFS(os.DirFS(p), ".")
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	if err := r.LoadManifest(data); err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	return nil
}

// LoadFS merges every *.yaml manifest found in dir of fsys, in name order.
func (r *Registry) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading definitions directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		if err := r.LoadManifest(data); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Versions returns every version that has at least one manifest, in
// ascending version order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.versions))
	for v := range r.versions {
		out = append(out, v)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return versionLess(out[i], out[j])
	})
	return out
}

// Description returns the manifest description recorded for version.
func (r *Registry) Description(version string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.versions[version]
}

// Segments returns the names of all segments that resolve for version,
// sorted alphabetically.
func (r *Registry) Segments(version string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for name, byVersion := range r.segments {
		if def, _ := ResolveVersion(byVersion, version, r.baseline); def != nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ResolvedVersion returns the version whose definition would be used for
// segmentName at version, or "" when the segment is unknown.
func (r *Registry) ResolvedVersion(segmentName, version string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, v := ResolveVersion(r.segments[segmentName], version, r.baseline)
	return v
}

// versionLess orders HL7 version strings numerically ("2.3" < "2.5" <
// "2.5.1" < "2.10"), falling back to string order for unparseable values.
func versionLess(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		if va.Equal(vb) {
			return a < b
		}
		return va.LessThan(vb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Compile-time interface satisfaction check.
var _ Lookup = (*Registry)(nil)
