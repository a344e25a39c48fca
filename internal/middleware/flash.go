package middleware

import (
	"net/http"
	"net/url"
	"time"
)

// Flash notices follow the PRG pattern: a mutation sets a one-shot cookie pair
// (message + level) and redirects; the next rendered page pops and shows it.
// Levels mirror the usual alert classes: success, danger, warning, info.

// Flash sets a one-shot flash cookie.
func Flash(w http.ResponseWriter, level, msg string) {
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: url.QueryEscape(msg), Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "flash_level", Value: level, Path: "/"})
}

// PopFlash reads and clears the flash cookie pair.
func PopFlash(w http.ResponseWriter, r *http.Request) (msg, level string) {
	c, err := r.Cookie("flash")
	if err != nil || c.Value == "" {
		return "", ""
	}
	if dec, derr := url.QueryUnescape(c.Value); derr == nil {
		msg = dec
	} else {
		msg = c.Value
	}
	level = "info"
	if lc, lerr := r.Cookie("flash_level"); lerr == nil && lc.Value != "" {
		level = lc.Value
	}
	expired := &http.Cookie{Path: "/", Expires: time.Unix(0, 0), MaxAge: -1}
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: "", Path: expired.Path, Expires: expired.Expires, MaxAge: expired.MaxAge})
	http.SetCookie(w, &http.Cookie{Name: "flash_level", Value: "", Path: expired.Path, Expires: expired.Expires, MaxAge: expired.MaxAge})
	return msg, level
}
