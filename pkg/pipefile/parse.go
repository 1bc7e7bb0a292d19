// SPDX-License-Identifier: MPL-2.0

package pipefile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"taskpipe/pkg/cueutil"
)

//go:embed pipefile_schema.cue
var pipefileSchema string

// Parse reads and parses a pipefile from the given path. The format is
// chosen by extension: .toml decodes as TOML, everything else as CUE.
func Parse(path string) (*Pipefile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipefile at %s: %w", path, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes parses pipefile content from bytes. CUE documents go through
// cueutil.ParseAndDecodeString (compile schema, unify, validate, decode);
// TOML documents decode directly and rely on Go-side validation for the
// structural rules the schema would have enforced.
func ParseBytes(data []byte, path string) (*Pipefile, error) {
	var pf *Pipefile

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parsed, err := parseTOML(data, path)
		if err != nil {
			return nil, err
		}
		pf = parsed
	} else {
		result, err := cueutil.ParseAndDecodeString[Pipefile](
			pipefileSchema,
			data,
			"#Pipefile",
			cueutil.WithFilename(path),
		)
		if err != nil {
			return nil, err
		}
		pf = result.Value
	}

	pf.FilePath = path

	if errs := pf.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return pf, nil
}

// parseTOML decodes a TOML pipefile. Unknown fields are rejected so typos
// surface as errors instead of silently ignored configuration.
func parseTOML(data []byte, path string) (*Pipefile, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	var pf Pipefile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&pf); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %s", path, row, col, derr.Error())
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, fmt.Errorf("%s: unknown fields:\n%s", path, serr.String())
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &pf, nil
}
