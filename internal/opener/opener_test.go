package opener

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/resolver"
	"github.com/starford/zk/internal/testutil"
)

func TestFollow_EndToEnd(t *testing.T) {
	ed := &testutil.Editor{Windows: 1}
	res := &testutil.Resolver{Result: resolver.Result{Stdout: "  /notes/abc-123.md\n"}}

	if err := New(res, ed, nil).Follow(context.Background(), "zk@abc-123"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if !reflect.DeepEqual(res.IDs, []string{"abc-123"}) {
		t.Errorf("resolver ids = %v, want [abc-123]", res.IDs)
	}
	if !reflect.DeepEqual(ed.Opened, []string{"/notes/abc-123.md"}) {
		t.Errorf("opened = %v", ed.Opened)
	}
}

func TestFollow_RejectsNonRef(t *testing.T) {
	ed := &testutil.Editor{Windows: 1}
	res := &testutil.Resolver{}

	err := New(res, ed, nil).Follow(context.Background(), "not-a-ref")
	if !errors.Is(err, apperr.ErrInvalidRef) {
		t.Fatalf("err = %v, want ErrInvalidRef", err)
	}
	if len(res.IDs) != 0 {
		t.Errorf("resolver invoked with %v", res.IDs)
	}
	if !reflect.DeepEqual(ed.Messages, []string{`Not a zettel ref: "not-a-ref"`}) {
		t.Errorf("messages = %q", ed.Messages)
	}
	if len(ed.Opened) != 0 {
		t.Errorf("opened = %v", ed.Opened)
	}
}

func TestFollow_UsesCursorWORD(t *testing.T) {
	ed := &testutil.Editor{Windows: 2, Word: "(zk@from-cursor),"}
	res := &testutil.Resolver{Result: resolver.Result{Stdout: "/k/from-cursor.md\n"}}

	if err := New(res, ed, nil).Follow(context.Background(), ""); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if !reflect.DeepEqual(res.IDs, []string{"from-cursor"}) {
		t.Errorf("resolver ids = %v", res.IDs)
	}
}

func TestOpen_DirectArgIsNotValidated(t *testing.T) {
	ed := &testutil.Editor{Windows: 1}
	res := &testutil.Resolver{Result: resolver.Result{Stdout: "/k/raw.md"}}

	if err := New(res, ed, nil).Open(context.Background(), "zk@raw id"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !reflect.DeepEqual(res.IDs, []string{"zk@raw id"}) {
		t.Errorf("resolver ids = %v", res.IDs)
	}
}

func TestOpen_ResolverFailure(t *testing.T) {
	ed := &testutil.Editor{Windows: 1}
	res := &testutil.Resolver{Result: resolver.Result{Stdout: "/k/x.md\n", ExitCode: 1}}

	err := New(res, ed, nil).Open(context.Background(), "x")
	if !errors.Is(err, apperr.ErrResolveFailed) {
		t.Fatalf("err = %v, want ErrResolveFailed", err)
	}
	if len(ed.Opened) != 0 {
		t.Errorf("file opened despite failure: %v", ed.Opened)
	}
	if !reflect.DeepEqual(ed.Messages, []string{FailureMessage}) {
		t.Errorf("messages = %q", ed.Messages)
	}
	if !reflect.DeepEqual(ed.Calls, []string{"message"}) {
		t.Errorf("calls = %v, want only the message", ed.Calls)
	}
}

func TestOpen_ResolverStartError(t *testing.T) {
	ed := &testutil.Editor{Windows: 1}
	boom := errors.New("exec: not found")
	res := &testutil.Resolver{Err: boom}

	err := New(res, ed, nil).Open(context.Background(), "x")
	if !errors.Is(err, apperr.ErrResolveFailed) {
		t.Errorf("err = %v, want ErrResolveFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want it to wrap %v", err, boom)
	}
	if !reflect.DeepEqual(ed.Messages, []string{FailureMessage}) {
		t.Errorf("messages = %q, want [%q]", ed.Messages, FailureMessage)
	}
	if len(ed.Opened) != 0 {
		t.Errorf("opened = %v", ed.Opened)
	}
}

func TestRejectMessage_KeepsTokenVerbatim(t *testing.T) {
	if got, want := RejectMessage(`say"hi\`), `Not a zettel ref: "say"hi\"`; got != want {
		t.Errorf("RejectMessage = %q, want %q", got, want)
	}
}

func TestOpen_MissingResolverBinary(t *testing.T) {
	ed := &testutil.Editor{Windows: 1}
	res := resolver.NewProcess(filepath.Join(t.TempDir(), "zk-not-installed"), nil)

	err := New(res, ed, nil).Open(context.Background(), "x")
	if !errors.Is(err, apperr.ErrResolveFailed) {
		t.Errorf("err = %v, want ErrResolveFailed", err)
	}
	if !reflect.DeepEqual(ed.Messages, []string{FailureMessage}) {
		t.Errorf("messages = %q", ed.Messages)
	}
	if !reflect.DeepEqual(ed.Calls, []string{"message"}) {
		t.Errorf("calls = %v, want only the message", ed.Calls)
	}
}

func TestOpen_WindowPlacement(t *testing.T) {
	cases := []struct {
		name    string
		windows int
		want    []string
	}{
		{"single window splits", 1, []string{"windows", "vsplit", "edit /k/a.md"}},
		{"two windows focus previous", 2, []string{"windows", "wincmd p", "edit /k/a.md"}},
		{"many windows focus previous", 5, []string{"windows", "wincmd p", "edit /k/a.md"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ed := &testutil.Editor{Windows: tc.windows}
			res := &testutil.Resolver{Result: resolver.Result{Stdout: "/k/a.md"}}
			if err := New(res, ed, nil).Open(context.Background(), "a"); err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !reflect.DeepEqual(ed.Calls, tc.want) {
				t.Errorf("calls = %v, want %v", ed.Calls, tc.want)
			}
			wantWindows := tc.windows
			if tc.windows == 1 {
				wantWindows = 2
			}
			if ed.Windows != wantWindows {
				t.Errorf("windows = %d, want %d", ed.Windows, wantWindows)
			}
		})
	}
}

func TestOpen_EditorErrorStops(t *testing.T) {
	boom := errors.New("rpc closed")
	ed := &testutil.Editor{Windows: 1, Err: boom}
	res := &testutil.Resolver{Result: resolver.Result{Stdout: "/k/a.md"}}

	if err := New(res, ed, nil).Open(context.Background(), "a"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(ed.Opened) != 0 {
		t.Errorf("opened = %v", ed.Opened)
	}
}
