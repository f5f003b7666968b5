package discovery

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTXT(t *testing.T) {
	info := &ServiceInfo{
		APIVersion:  "1.0",
		Release:     "0.6.0",
		HL7Versions: []string{"2.3", "2.5"},
		Path:        "/api/v1",
	}

	txt := EncodeTXT(info)
	assert.Equal(t, "1.0", txt[TXTKeyAPIVersion])
	assert.Equal(t, "2.3,2.5", txt[TXTKeyHL7Versions])

	svc, err := DecodeTXT(StringsToTXTRecords(TXTRecordsToStrings(txt)))
	require.NoError(t, err)
	assert.Equal(t, "1.0", svc.APIVersion)
	assert.Equal(t, "0.6.0", svc.Release)
	assert.Equal(t, []string{"2.3", "2.5"}, svc.HL7Versions)
	assert.Equal(t, "/api/v1", svc.Path)
	assert.True(t, svc.Compatible)
}

func TestEncodeTXTOmitsOptional(t *testing.T) {
	txt := EncodeTXT(&ServiceInfo{APIVersion: "1.0", Path: "/api/v1"})
	_, hasRel := txt[TXTKeyRelease]
	_, hasHL7 := txt[TXTKeyHL7Versions]
	assert.False(t, hasRel)
	assert.False(t, hasHL7)
}

func TestDecodeTXTMissingRequired(t *testing.T) {
	_, err := DecodeTXT(TXTRecordMap{TXTKeyPath: "/api/v1"})
	assert.True(t, errors.Is(err, ErrMissingRequired))
	assert.Contains(t, err.Error(), TXTKeyAPIVersion)

	_, err = DecodeTXT(TXTRecordMap{TXTKeyAPIVersion: "1.0"})
	assert.True(t, errors.Is(err, ErrMissingRequired))
}

func TestDecodeTXTIncompatibleMajor(t *testing.T) {
	svc, err := DecodeTXT(TXTRecordMap{TXTKeyAPIVersion: "2.0", TXTKeyPath: "/api/v2"})
	require.NoError(t, err)
	assert.False(t, svc.Compatible)
}

func TestTXTRecordsToStringsSorted(t *testing.T) {
	got := TXTRecordsToStrings(TXTRecordMap{"path": "/x", "api": "1.0"})
	assert.Equal(t, []string{"api=1.0", "path=/x"}, got)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "b=x=y", ""})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestValidateInstanceName(t *testing.T) {
	assert.NoError(t, ValidateInstanceName("hl7lens-lab"))
	assert.ErrorIs(t, ValidateInstanceName(""), ErrInstanceNameTooLong)
	assert.ErrorIs(t, ValidateInstanceName(strings.Repeat("x", 64)), ErrInstanceNameTooLong)
}

func TestDefaultInstanceName(t *testing.T) {
	assert.Equal(t, "hl7lens-lab01", DefaultInstanceName("lab01"))
	long := DefaultInstanceName(strings.Repeat("h", 100))
	assert.Len(t, long, MaxInstanceNameLen)
	assert.NoError(t, ValidateInstanceName(long))
}

func TestServiceURL(t *testing.T) {
	svc := &Service{Host: "lab.local.", Port: 8080, Path: "/api/v1"}
	assert.Equal(t, "http://lab.local.:8080/api/v1", svc.URL())

	svc.Addresses = []string{"fe80::1"}
	assert.Equal(t, "http://[fe80::1]:8080/api/v1", svc.URL())

	svc.Addresses = []string{"192.168.1.20"}
	assert.Equal(t, "http://192.168.1.20:8080/api/v1", svc.URL())
}

func TestEntryToService(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: "hl7lens-lab",
			Service:  ServiceType,
			Domain:   Domain,
		},
		HostName: "lab.local.",
		Port:     9000,
		Text:     []string{"api=1.0", "path=/api/v1", "rel=0.6.0"},
		AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
	}
	svc := entryToService(entry)
	require.NotNil(t, svc)
	assert.Equal(t, "hl7lens-lab", svc.InstanceName)
	assert.Equal(t, 9000, svc.Port)
	assert.Equal(t, []string{"10.0.0.5"}, svc.Addresses)
	assert.Equal(t, "0.6.0", svc.Release)

	entry.Text = []string{"path=/api/v1"}
	assert.Nil(t, entryToService(entry))
}

func TestMergeAddresses(t *testing.T) {
	got := mergeAddresses([]string{"a", "b"}, []string{"b", "c", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestAdvertiserUpdateWithoutAdvertise(t *testing.T) {
	a := NewMDNSAdvertiser(AdvertiserConfig{})
	assert.ErrorIs(t, a.Update(&ServiceInfo{}), ErrNotAdvertising)
	assert.NoError(t, a.Stop())
	assert.NoError(t, a.Stop())
}

func TestAdvertiseRejectsLongName(t *testing.T) {
	a := NewMDNSAdvertiser(AdvertiserConfig{})
	err := a.Advertise(t.Context(), &ServiceInfo{InstanceName: strings.Repeat("n", 70)})
	assert.ErrorIs(t, err, ErrInstanceNameTooLong)
}

func TestNewMDNSBrowserDefaultsTimeout(t *testing.T) {
	b := NewMDNSBrowser(BrowserConfig{})
	assert.Equal(t, BrowseTimeout, b.config.Timeout)
}
