// Package discovery advertises and finds hl7lens web adapters on the local
// network with mDNS/DNS-SD.
//
// A running hl7lens-web instance registers one service of type
// _hl7lens._tcp. The instance name defaults to "hl7lens-<hostname>".
// TXT records carry:
//
//	api   HTTP API version ("major.minor")
//	rel   application release
//	hl7   HL7 versions known to the server's definition registry (comma-separated)
//	path  route prefix of the versioned API, e.g. /api/v1
//
// Browsing aggregates addresses from all interfaces into one Service per
// instance name. Services whose API major version differs from the local
// one are reported with Compatible set to false.
package discovery
