package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDeveloperValidate(t *testing.T) {
	tests := []struct {
		name    string
		dev     Developer
		missing []string
	}{
		{name: "complete", dev: Developer{Name: "Asha", Email: "asha@udicti.dev", GitHub: "asha"}},
		{name: "blank name", dev: Developer{Name: "  ", Email: "a@b.c", GitHub: "a"}, missing: []string{"name"}},
		{name: "nothing", dev: Developer{}, missing: []string{"name", "email", "github"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dev.Validate()
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if strings.Join(ve.Fields, ",") != strings.Join(tt.missing, ",") {
				t.Errorf("fields = %v, want %v", ve.Fields, tt.missing)
			}
		})
	}
}

func TestDeveloperNormalized(t *testing.T) {
	d := Developer{Name: " Asha ", Email: " asha@udicti.dev", GitHub: "@asha"}.Normalized()
	if d.Name != "Asha" || d.Email != "asha@udicti.dev" || d.GitHub != "asha" {
		t.Errorf("unexpected normalization: %+v", d)
	}
	if d.Skills == nil || d.Interests == nil {
		t.Error("list fields should be non-nil after normalization")
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"skills":[]`) {
		t.Errorf("empty skills should encode as [], got %s", data)
	}
	if strings.Contains(string(data), "joined_at") {
		t.Errorf("nil joined_at should be omitted, got %s", data)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" go, rust ,,python ")
	want := []string{"go", "rust", "python"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %v, want empty", got)
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	want := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)

	for _, raw := range []string{
		`"2025-03-04T10:30:00Z"`,
		`"Tue, 04 Mar 2025 10:30:00 GMT"`,
	} {
		var ts Timestamp
		if err := json.Unmarshal([]byte(raw), &ts); err != nil {
			t.Fatalf("Unmarshal(%s): %v", raw, err)
		}
		if !ts.Equal(want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", raw, ts.Time, want)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}
