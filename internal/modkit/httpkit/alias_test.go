package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "hookline/internal/platform/errors"
	phttp "hookline/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func TestJSON_DecodeValidateAndRespond(t *testing.T) {
	type in struct {
		Source string `json:"source" validate:"required,webhook_source"`
	}
	h := JSON(func(_ *http.Request, body in) (any, error) {
		return map[string]string{"source": body.Source}, nil
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"source":"linear"}`))
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if env.Error != "" {
		t.Fatalf("unexpected error in envelope: %q", env.Error)
	}
}

func TestJSON_BadBodyMapsToEnvelope(t *testing.T) {
	type in struct {
		Source string `json:"source" validate:"required"`
	}
	h := JSON(func(_ *http.Request, _ in) (any, error) { return nil, nil })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCall_ErrorStatus(t *testing.T) {
	h := Call(func(*http.Request) (any, error) {
		return nil, perr.Unauthorizedf("bad signature")
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCall_ResponsePassthrough(t *testing.T) {
	h := Call(func(*http.Request) (any, error) {
		return Accepted(nil), nil
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMountUnder_AppliesPrefixAndMiddleware(t *testing.T) {
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)

	touched := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, rq *http.Request) {
			touched = true
			next.ServeHTTP(w, rq)
		})
	}

	MountUnder(r, "/hooks", []func(http.Handler) http.Handler{mw}, func(sub Router) {
		sub.Post("/github", Handle(func(*http.Request) Response { return NoContent() }))
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/hooks/github", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if !touched {
		t.Fatalf("middleware not applied")
	}
}
