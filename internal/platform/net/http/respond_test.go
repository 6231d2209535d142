package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	perr "hookline/internal/platform/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	return env
}

func TestHandle_OK(t *testing.T) {
	h := Handle(func(*stdhttp.Request) Response {
		return OK(map[string]string{"state": "queued"})
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/hooks/github", nil))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.StatusCode != stdhttp.StatusOK || env.Error != "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHandle_Accepted(t *testing.T) {
	h := Handle(func(*stdhttp.Request) Response { return Accepted(nil) })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/hooks/linear", nil))
	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandle_NoContentHasEmptyBody(t *testing.T) {
	h := Handle(func(*stdhttp.Request) Response { return NoContent() })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("DELETE", "/", nil))
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("204 must have no body, got %q", rec.Body.String())
	}
}

func TestHandle_ErrorMapsStatus(t *testing.T) {
	h := Handle(func(*stdhttp.Request) Response {
		return Error(perr.Unauthorizedf("signature mismatch"))
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/hooks/github", nil))

	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != perr.ErrorCodeUnauthorized || env.Error == "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestHandle_TextIsUnwrapped(t *testing.T) {
	h := Handle(func(*stdhttp.Request) Response {
		return Text(stdhttp.StatusOK, "3eZbrba3aaBLfooajNWU")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/hooks/slack", nil))

	if rec.Body.String() != "3eZbrba3aaBLfooajNWU" {
		t.Fatalf("challenge body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRespondError_Direct(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, httptest.NewRequest("GET", "/", nil), perr.NotFoundf("no such delivery"))
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
