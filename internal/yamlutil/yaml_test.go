package yamlutil_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/halvar/go-docfilter/internal/yamlutil"
)

type testMeta struct {
	Font     string   `yaml:"font"`
	Mode     string   `yaml:"mode"`
	Count    int      `yaml:"count"`
	Includes []string `yaml:"includes"`
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
		check   func(t *testing.T, v any)
	}{
		{
			name: "valid YAML",
			data: []byte("font: Alegreya\nmode: draft\ncount: 3"),
			dest: &testMeta{},
			check: func(t *testing.T, v any) {
				m := v.(*testMeta)
				if m.Font != "Alegreya" {
					t.Errorf("Font = %q, want %q", m.Font, "Alegreya")
				}
				if m.Mode != "draft" {
					t.Errorf("Mode = %q, want %q", m.Mode, "draft")
				}
				if m.Count != 3 {
					t.Errorf("Count = %d, want %d", m.Count, 3)
				}
			},
		},
		{
			name: "list field",
			data: []byte("includes:\n- arrows\n- positioning"),
			dest: &testMeta{},
			check: func(t *testing.T, v any) {
				m := v.(*testMeta)
				if len(m.Includes) != 2 || m.Includes[0] != "arrows" {
					t.Errorf("Includes = %v, want [arrows positioning]", m.Includes)
				}
			},
		},
		{
			name: "unknown fields ignored",
			data: []byte("font: Lato\ntitle: My Document\nauthor: Someone"),
			dest: &testMeta{},
			check: func(t *testing.T, v any) {
				m := v.(*testMeta)
				if m.Font != "Lato" {
					t.Errorf("Font = %q, want %q", m.Font, "Lato")
				}
			},
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testMeta{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "empty data",
			data:    []byte{},
			dest:    &testMeta{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("font: x"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
		{
			name:    "invalid YAML syntax",
			data:    []byte("font: [unclosed"),
			dest:    &testMeta{},
			wantErr: errors.New("yamlutil:"), // partial match
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if errors.Is(err, tt.wantErr) {
					return
				}
				if !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Fatalf("error = %q, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, tt.dest)
			}
		})
	}
}

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{
			name: "known fields only",
			data: []byte("font: Lato\nmode: print"),
		},
		{
			name:    "unknown field rejected",
			data:    []byte("font: Lato\nmisspelled: value"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, &testMeta{})
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUnmarshalTooLarge(t *testing.T) {
	t.Parallel()

	data := []byte("font: " + strings.Repeat("a", yamlutil.MaxInputSize))
	err := yamlutil.Unmarshal(data, &testMeta{})
	if !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Fatalf("error = %v, want ErrInputTooLarge", err)
	}
}
