package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSubmitFeedbackCreated(t *testing.T) {
	fb := &stubFeedback{}
	app := newTestApp()
	app.Feedback = fb

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/feedback",
		strings.NewReader(`{"rating":5,"comment":"love it"}`)), "u1")
	rec := httptest.NewRecorder()
	app.SubmitFeedback(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "Feedback submitted successfully!" {
		t.Fatalf("message = %v", body["message"])
	}
	if fb.created == nil || fb.created.Rating != 5 || fb.created.UserID != "u1" {
		t.Fatalf("created = %+v", fb.created)
	}
}

func TestSubmitFeedbackMissingFields(t *testing.T) {
	app := newTestApp()
	app.Feedback = &stubFeedback{}

	for _, payload := range []string{`{}`, `{"rating":4}`, `{"comment":"no rating"}`, `{"rating":9,"comment":"x"}`} {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(payload)), "u1")
		rec := httptest.NewRecorder()
		app.SubmitFeedback(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %s: status = %d", payload, rec.Code)
		}
	}
}
