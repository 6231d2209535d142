package errors

import (
	stderrs "errors"
	"net/http"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(ErrorCodeUnauthorized, "bad signature")
	e, ok := As(err)
	if !ok {
		t.Fatal("expected *Error")
	}
	if e.Code() != ErrorCodeUnauthorized || e.Error() != "bad signature" {
		t.Fatalf("got code=%d msg=%q", e.Code(), e.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrs.New("socket closed")
	err := Wrap(cause, ErrorCodeUnavailable, "store write")
	if !stderrs.Is(err, cause) {
		t.Fatal("wrapped cause lost")
	}
	if Root(err) != cause {
		t.Fatal("Root should find the deepest cause")
	}
	if CodeOf(err) != ErrorCodeUnavailable {
		t.Fatalf("CodeOf = %d", CodeOf(err))
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(stderrs.New("plain")) != ErrorCodeUnknown {
		t.Fatal("foreign errors default to Unknown")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Unauthorizedf("nope"), http.StatusUnauthorized},
		{JSONErrf("bad body"), http.StatusBadRequest},
		{DuplicateKeyf("dupe"), http.StatusConflict},
		{Unavailablef("db down"), http.StatusServiceUnavailable},
		{NotFoundf("gone"), http.StatusNotFound},
		{DBf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Fatalf("HTTPStatus(%v) = %d want %d", c.err, got, c.want)
		}
	}
}

func TestWireFrom(t *testing.T) {
	w := WireFrom(Newf(ErrorCodeValidation, "field %s", "type"))
	if w.Code != ErrorCodeValidation || w.Message != "field type" {
		t.Fatalf("WireFrom = %+v", w)
	}
	if WireFrom(nil) != (Wire{}) {
		t.Fatal("nil should map to zero Wire")
	}
}

func TestWithFieldCopyOnWrite(t *testing.T) {
	orig := Newf(ErrorCodeValidation, "invalid")
	withField := WithField(orig, "payload")
	e1, _ := As(orig)
	e2, _ := As(withField)
	if e1.Field() != "" {
		t.Fatal("original mutated")
	}
	if e2.Field() != "payload" {
		t.Fatalf("field = %q", e2.Field())
	}
}

func TestWrapIf(t *testing.T) {
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatal("WrapIf(nil) should be nil")
	}
	if CodeOf(WrapIf(stderrs.New("y"), ErrorCodeDB, "x")) != ErrorCodeDB {
		t.Fatal("WrapIf should wrap non-nil")
	}
}
