// SPDX-License-Identifier: MPL-2.0

// Package cueutil centralises CUE schema parsing for the pipefile and
// config loaders.
//
// Both loaders follow the same shape: compile an embedded schema, compile
// the user's file, unify the two, then validate and decode into a Go
// struct. ParseAndDecode owns that sequence so schema violations from
// either caller surface the same way, with the offending CUE path
// attached (see FormatError).
//
// # Usage
//
//	//go:embed pipefile_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[Pipefile](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Pipefile",
//	    cueutil.WithFilename("pipefile.cue"),
//	)
//	if err != nil {
//	    return nil, err // carries the CUE path of the failure
//	}
//	return result.Value, nil
package cueutil
