package id

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewHasPrefix(t *testing.T) {
	cases := []struct {
		gen    func() ID
		prefix Prefix
	}{
		{NewPassID, PrefixPass},
		{NewNotifyID, PrefixNotify},
		{NewJobID, PrefixJob},
		{NewMessageID, PrefixMessage},
	}
	for _, tc := range cases {
		got := tc.gen()
		if got.Prefix() != tc.prefix {
			t.Errorf("expected prefix %q, got %q", tc.prefix, got.Prefix())
		}
		if !strings.HasPrefix(got.String(), string(tc.prefix)+"_") {
			t.Errorf("unexpected string form %q", got.String())
		}
	}
}

func TestParse(t *testing.T) {
	pass := NewPassID()

	got, err := Parse(pass.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.String() != pass.String() || got.Prefix() != PrefixPass {
		t.Fatalf("expected %s, got %s", pass, got)
	}
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	if !Nil.IsNil() || Nil.String() != "" || Nil.Prefix() != "" {
		t.Fatal("Nil should be empty")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		ID ID `json:"id"`
	}
	in := wrapper{ID: NewNotifyID()}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out wrapper
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID.String() != in.ID.String() {
		t.Fatalf("expected %s, got %s", in.ID, out.ID)
	}
}
