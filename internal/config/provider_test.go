// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"testing"

	"taskpipe/pkg/types"
)

func TestLoadOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts LoadOptions
		// wantFieldErrs is the number of invalid fields; 0 means valid.
		wantFieldErrs int
	}{
		{
			name:          "zero value uses defaults",
			opts:          LoadOptions{},
			wantFieldErrs: 0,
		},
		{
			name: "all paths set and valid",
			opts: LoadOptions{
				ConfigFilePath: "/etc/taskpipe/config.cue",
				ConfigDirPath:  "/etc/taskpipe",
				BaseDir:        "/srv/project",
			},
			wantFieldErrs: 0,
		},
		{
			name:          "whitespace config file path",
			opts:          LoadOptions{ConfigFilePath: types.FilesystemPath("   ")},
			wantFieldErrs: 1,
		},
		{
			name:          "whitespace config dir path",
			opts:          LoadOptions{ConfigDirPath: types.FilesystemPath("\t")},
			wantFieldErrs: 1,
		},
		{
			name:          "whitespace base dir",
			opts:          LoadOptions{BaseDir: types.FilesystemPath("  \t  ")},
			wantFieldErrs: 1,
		},
		{
			name: "every field invalid",
			opts: LoadOptions{
				ConfigFilePath: types.FilesystemPath("   "),
				ConfigDirPath:  types.FilesystemPath("\t"),
				BaseDir:        types.FilesystemPath("  "),
			},
			wantFieldErrs: 3,
		},
		{
			name: "empty fields pass, one bad field caught",
			opts: LoadOptions{
				ConfigFilePath: "",
				ConfigDirPath:  types.FilesystemPath("   "),
				BaseDir:        "/srv/project",
			},
			wantFieldErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.opts.Validate()
			if tt.wantFieldErrs == 0 {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, ErrInvalidLoadOptions) {
				t.Errorf("error does not wrap ErrInvalidLoadOptions: %v", err)
			}
			loadErr, ok := errors.AsType[*InvalidLoadOptionsError](err)
			if !ok {
				t.Fatalf("error is %T, want *InvalidLoadOptionsError", err)
			}
			if len(loadErr.FieldErrors) != tt.wantFieldErrs {
				t.Errorf("FieldErrors = %d, want %d: %v",
					len(loadErr.FieldErrors), tt.wantFieldErrs, loadErr.FieldErrors)
			}
		})
	}
}

func TestInvalidLoadOptionsError_Error(t *testing.T) {
	t.Parallel()

	single := &InvalidLoadOptionsError{FieldErrors: []error{errors.New("bad base dir")}}
	if got := single.Error(); got != "invalid load options: bad base dir" {
		t.Errorf("Error() = %q", got)
	}

	multiple := &InvalidLoadOptionsError{
		FieldErrors: []error{errors.New("err1"), errors.New("err2")},
	}
	if got := multiple.Error(); got != "invalid load options: 2 field errors" {
		t.Errorf("Error() = %q", got)
	}

	if !errors.Is(multiple, ErrInvalidLoadOptions) {
		t.Error("InvalidLoadOptionsError should unwrap to ErrInvalidLoadOptions")
	}
}

func TestProvider_Load_RejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	p := NewProvider()
	_, err := p.Load(context.Background(), LoadOptions{
		ConfigFilePath: types.FilesystemPath("   "),
	})
	if err == nil {
		t.Fatal("Load with invalid options should fail before touching the filesystem")
	}
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Errorf("error should wrap ErrInvalidLoadOptions, got: %v", err)
	}
}
