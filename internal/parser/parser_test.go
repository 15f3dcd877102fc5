package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/models"
)

func TestParse_MetadataAndContent(t *testing.T) {
	input := []byte("title: Hello\ncreated: 2020-03-14\n\nBody text with zk@other.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if v, _ := r.Metadata.Get("created"); v != "2020-03-14" {
		t.Errorf("created = %q", v)
	}
	if _, ok := r.Metadata.Get("title"); ok {
		t.Error("title should be removed from metadata")
	}
	want := []string{"\n", "Body text with zk@other.\n"}
	if !reflect.DeepEqual(r.Content, want) {
		t.Errorf("content = %q, want %q", r.Content, want)
	}
	if len(r.Refs) != 1 || r.Refs[0] != "other" {
		t.Errorf("refs = %v, want [other]", r.Refs)
	}
}

func TestParse_HeaderStopsAtFirstNonMetadataLine(t *testing.T) {
	input := []byte("a: 1\nplain line\nb: 2\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Metadata.Len() != 1 {
		t.Errorf("metadata len = %d, want 1", r.Metadata.Len())
	}
	if r.Body != "plain line\nb: 2\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoTrailingNewline(t *testing.T) {
	r, err := Parse([]byte("title: T\nlast"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Body != "last" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestLoad_TitleDefaultsToID(t *testing.T) {
	z, err := Load("20200314-note", []byte("Some content\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if z.Title != "20200314-note" {
		t.Errorf("title = %q", z.Title)
	}
}

func TestLoad_InvalidID(t *testing.T) {
	_, err := Load("bad id!", []byte("x"))
	if !errors.Is(err, apperr.ErrInvalidID) {
		t.Errorf("err = %v, want ErrInvalidID", err)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	z := models.New("n1")
	z.Title = "A note"
	z.Metadata.Set("tags", "go zk")
	z.Content = []string{"\n", "see zk@n2\n"}

	out := Render(z)
	want := "title: A note\ntags: go zk\n\nsee zk@n2\n"
	if string(out) != want {
		t.Fatalf("render = %q, want %q", out, want)
	}

	back, err := Load("n1", out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Title != z.Title || !reflect.DeepEqual(back.Content, z.Content) {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"index", "abc-123", "a_b", "X9"} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
	for _, id := range []string{"", "a b", "../etc", "a.md", "zk@x"} {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) should fail", id)
		}
	}
}

func TestExtractRefs_Dedup(t *testing.T) {
	refs := ExtractRefs("zk@a then zk@b-2 and zk@a again, also email@zk.")
	if !reflect.DeepEqual(refs, []string{"a", "b-2"}) {
		t.Errorf("refs = %v", refs)
	}
}

func TestRewriteRefs(t *testing.T) {
	out, n := RewriteRefs("zk@abc zk@abcd (zk@abc)", "abc", "xyz")
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	if out != "zk@xyz zk@abcd (zk@xyz)" {
		t.Errorf("out = %q", out)
	}
}
