package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hl7lens/hl7lens-go/pkg/version"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates TXT records for an advertised instance.
func EncodeTXT(info *ServiceInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	txt[TXTKeyAPIVersion] = info.APIVersion
	txt[TXTKeyPath] = info.Path

	if info.Release != "" {
		txt[TXTKeyRelease] = info.Release
	}
	if len(info.HL7Versions) > 0 {
		txt[TXTKeyHL7Versions] = strings.Join(info.HL7Versions, ",")
	}
	return txt
}

// DecodeTXT parses TXT records of a browsed instance into the service
// fields they carry.
func DecodeTXT(txt TXTRecordMap) (*Service, error) {
	svc := &Service{}

	var ok bool
	svc.APIVersion, ok = txt[TXTKeyAPIVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyAPIVersion)
	}
	svc.Path, ok = txt[TXTKeyPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyPath)
	}

	svc.Release = txt[TXTKeyRelease]
	if v := txt[TXTKeyHL7Versions]; v != "" {
		svc.HL7Versions = strings.Split(v, ",")
	}
	svc.Compatible = version.CompatibleWithCurrent(svc.APIVersion)
	return svc, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}
