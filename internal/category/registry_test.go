package category

import (
	"errors"
	"testing"
)

type fakeLister struct {
	ids []string
	err error
}

func (f *fakeLister) ListCategoryIDs(userID string) ([]string, error) {
	return f.ids, f.err
}

func TestKnown_DefaultsOnly(t *testing.T) {
	r := NewRegistry(nil)
	ids, err := r.Known("u1")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"work", "study", "health", "personal"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], id)
		}
	}
}

func TestKnown_MergesCustom(t *testing.T) {
	r := NewRegistry(&fakeLister{ids: []string{"hobbies", "work", "reading"}})
	ids, err := r.Known("u1")
	if err != nil {
		t.Fatal(err)
	}
	// Custom entries appended, duplicates of defaults skipped.
	if len(ids) != 6 {
		t.Fatalf("ids = %v, want 6 entries", ids)
	}
	if ids[4] != "hobbies" || ids[5] != "reading" {
		t.Errorf("custom tail = %v", ids[4:])
	}
}

func TestValid(t *testing.T) {
	r := NewRegistry(&fakeLister{ids: []string{"hobbies"}})

	for _, tt := range []struct {
		id   string
		want bool
	}{
		{"work", true},
		{"hobbies", true},
		{"gaming", false},
		{"", false},
	} {
		ok, err := r.Valid("u1", tt.id)
		if err != nil {
			t.Fatal(err)
		}
		if ok != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.id, ok, tt.want)
		}
	}
}

func TestKnown_StoreError(t *testing.T) {
	r := NewRegistry(&fakeLister{err: errors.New("db closed")})
	if _, err := r.Known("u1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsBuiltin(t *testing.T) {
	if !IsBuiltin("health") {
		t.Error("health should be builtin")
	}
	if IsBuiltin("hobbies") {
		t.Error("hobbies should not be builtin")
	}
}
