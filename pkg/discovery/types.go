package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type of the web adapter.
	ServiceType = "_hl7lens._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default hl7lens-web port.
	DefaultPort = 8080

	// InstancePrefix prefixes generated instance names.
	InstancePrefix = "hl7lens-"
)

// TXT record keys.
const (
	TXTKeyAPIVersion  = "api"
	TXTKeyRelease     = "rel"
	TXTKeyHL7Versions = "hl7"
	TXTKeyPath        = "path"
)

// Limits and timing.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// BrowseTimeout bounds FindAll when the context has no deadline.
	BrowseTimeout = 3 * time.Second
)

// Errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotAdvertising      = errors.New("not advertising")
)

// ServiceInfo describes what an hl7lens-web instance advertises.
type ServiceInfo struct {
	// InstanceName is the DNS-SD instance name. Empty means
	// InstancePrefix + hostname.
	InstanceName string

	// Port is the HTTP listen port. Zero means DefaultPort.
	Port int

	APIVersion  string
	Release     string
	HL7Versions []string
	Path        string
}

// Service is an hl7lens-web instance found on the network.
type Service struct {
	InstanceName string
	Host         string
	Port         int
	Addresses    []string

	APIVersion  string
	Release     string
	HL7Versions []string
	Path        string

	// Compatible is false when the advertised API major version differs
	// from the local one.
	Compatible bool
}

// URL returns the base URL of the service using its first address, or the
// host name when no address is known.
func (s *Service) URL() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port)) + s.Path
}

// String returns a one-line description.
func (s *Service) String() string {
	return fmt.Sprintf("%s %s (api %s, release %s)", s.InstanceName, s.URL(), s.APIVersion, s.Release)
}

// AdvertiserConfig configures the advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface.
	// Empty string means all interfaces.
	Interface string

	// TTL overrides the record TTL. Zero uses the library default.
	TTL time.Duration
}

// BrowserConfig configures the browser.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	Interface string

	// Timeout bounds FindAll when the context has no deadline.
	// Default: BrowseTimeout.
	Timeout time.Duration
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// DefaultInstanceName returns InstancePrefix + host, truncated to the DNS
// label limit.
func DefaultInstanceName(host string) string {
	name := InstancePrefix + host
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}
