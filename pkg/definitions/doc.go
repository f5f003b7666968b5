// Package definitions provides the version-keyed HL7 v2.x schema used to
// validate and describe parsed segments and fields.
//
// Definitions are stored per segment name and per HL7 version. A lookup for
// a version that has no entry for the segment falls back to the registry's
// baseline version (2.5 for the embedded data). A segment name that is not
// known at all resolves to nil.
//
// # Embedded Data
//
// The default registry is built from the YAML manifests under specs/. Each
// manifest declares one version:
//
//	version: "2.5"
//	description: HL7 v2.5 baseline definitions
//	segments:
//	  PID:
//	    name: Patient Identification
//	    fields:
//	      3:
//	        name: Patient ID (Internal)
//	        dataType: CX
//	        length: 250
//	        required: true
//	        repeatable: true
//
// Field keys are definition indices: index 0 is the segment ID itself and,
// for MSH, index 1 is the field separator and index 2 the encoding
// characters.
//
// Site-specific definitions (Z-segments, local length limits) can be merged
// into a registry with [Registry.LoadFile] or [Registry.LoadFS].
package definitions
