package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFlashRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	Flash(w, "success", "Sale completed and stock updated.")

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w2 := httptest.NewRecorder()
	msg, level := PopFlash(w2, req)
	if msg != "Sale completed and stock updated." || level != "success" {
		t.Fatalf("got %q / %q", msg, level)
	}

	// Pop clears the cookies.
	cleared := false
	for _, c := range w2.Result().Cookies() {
		if c.Name == "flash" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("flash cookie not cleared")
	}
}

func TestPopFlashWithoutCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	if msg, _ := PopFlash(w, req); msg != "" {
		t.Fatalf("unexpected flash %q", msg)
	}
}
