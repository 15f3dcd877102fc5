package parser

import (
	"strings"
	"testing"
)

func TestParseRef_Valid(t *testing.T) {
	cases := map[string]string{
		"zk@abc-123":       "abc-123",
		"zk@a":             "a",
		"zk@20200314_note": "20200314_note",
		"zk@UPPER":         "UPPER",
	}
	for token, want := range cases {
		r := ParseRef(token)
		if !r.Valid() {
			t.Errorf("ParseRef(%q) rejected", token)
			continue
		}
		if r.ID != want {
			t.Errorf("ParseRef(%q).ID = %q, want %q", token, r.ID, want)
		}
		// For whole-token references the ID is everything after the first '@'.
		if _, after, _ := strings.Cut(token, "@"); after != r.ID {
			t.Errorf("ParseRef(%q).ID = %q, want substring after '@' %q", token, r.ID, after)
		}
	}
}

func TestParseRef_Rejected(t *testing.T) {
	for _, token := range []string{"not-a-ref", "", "zk@", "zk@!", "ZK@abc", "zk abc"} {
		r := ParseRef(token)
		if r.Valid() {
			t.Errorf("ParseRef(%q) accepted with ID %q", token, r.ID)
		}
		if r.Token != token {
			t.Errorf("token not preserved: %q", r.Token)
		}
	}
}

func TestParseRef_SurroundingPunctuation(t *testing.T) {
	r := ParseRef("(see:zk@abc-1),")
	if !r.Valid() || r.ID != "abc-1" {
		t.Errorf("got %+v", r)
	}
}
