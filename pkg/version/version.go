// Package version provides the HTTP API version and compatibility helpers
// shared by the web adapter and its discovery records.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the HTTP API version served by hl7lens-web.
const Current = "1.0"

// Release is the application release reported by the CLI and health endpoint.
const Release = "0.6.0"

// APIVersion represents a parsed "major.minor" API version.
type APIVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (APIVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return APIVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return APIVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return APIVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return APIVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v APIVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v APIVersion) Compatible(other APIVersion) bool {
	return v.Major == other.Major
}

// APIPrefix returns the versioned route prefix for a major version: "/api/vN".
func APIPrefix(major uint16) string {
	return fmt.Sprintf("/api/v%d", major)
}

// CompatibleWithCurrent reports whether a peer advertising s speaks the
// current API major version.
func CompatibleWithCurrent(s string) bool {
	peer, err := Parse(s)
	if err != nil {
		return false
	}
	current, _ := Parse(Current)
	return current.Compatible(peer)
}
