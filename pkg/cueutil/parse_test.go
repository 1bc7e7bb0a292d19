// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Widget: {
	name:   string
	count?: int & >=0
	tags?: [...string]
}
`

type widget struct {
	Name  string   `json:"name"`
	Count int      `json:"count,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, w *widget)
	}{
		{
			name: "minimal valid document",
			data: `name: "gear"`,
			check: func(t *testing.T, w *widget) {
				t.Helper()
				if w.Name != "gear" {
					t.Errorf("Name = %q, want %q", w.Name, "gear")
				}
			},
		},
		{
			name: "all fields populated",
			data: `
name: "gear"
count: 3
tags: ["a", "b"]
`,
			check: func(t *testing.T, w *widget) {
				t.Helper()
				if w.Count != 3 {
					t.Errorf("Count = %d, want 3", w.Count)
				}
				if len(w.Tags) != 2 {
					t.Errorf("len(Tags) = %d, want 2", len(w.Tags))
				}
			},
		},
		{
			name:    "missing required field",
			data:    `count: 3`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			data:    `name: 42`,
			wantErr: true,
		},
		{
			name:    "schema constraint violated",
			data:    `{name: "gear", count: -1}`,
			wantErr: true,
		},
		{
			name:    "syntax error",
			data:    `name: "gear`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := ParseAndDecodeString[widget](testSchema, []byte(tt.data), "#Widget", WithFilename("widget.cue"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, result.Value)
			}
		})
	}
}

func TestParseAndDecodeErrorNamesFile(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecodeString[widget](testSchema, []byte(`name: 42`), "#Widget", WithFilename("widget.cue"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "widget.cue") {
		t.Errorf("error %q does not mention the filename", err)
	}
}

func TestParseAndDecodeMaxFileSize(t *testing.T) {
	t.Parallel()

	data := []byte(`name: "` + strings.Repeat("x", 100) + `"`)
	_, err := ParseAndDecodeString[widget](testSchema, data, "#Widget", WithMaxFileSize(16))
	if err == nil {
		t.Fatal("expected size error, got nil")
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("error %q should mention the size limit", err)
	}
}

func TestParseAndDecodeNonConcrete(t *testing.T) {
	t.Parallel()

	// With concrete validation disabled, a document that omits optional
	// fields entirely still decodes.
	result, err := ParseAndDecodeString[widget](testSchema, []byte(`name: "gear"`), "#Widget", WithConcrete(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Value.Name != "gear" {
		t.Errorf("Name = %q, want %q", result.Value.Name, "gear")
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "f"); err != nil {
		t.Errorf("size at limit should pass: %v", err)
	}
	if err := CheckFileSize(make([]byte, 11), 10, "f"); err == nil {
		t.Error("size over limit should fail")
	}
}
