package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	// TabCookieName carries the tab id for clients that cannot set headers.
	TabCookieName = "taste_haven_tab"
	// TabHeader is preferred: browsers share cookies across tabs, so a front
	// end keeps its id in sessionStorage and sends it on every call.
	TabHeader = "X-Tab-Id"
)

// SetTabCookie sets an HTTP-only browser-session cookie.
func SetTabCookie(w http.ResponseWriter, tabID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     TabCookieName,
		Value:    tabID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearTabCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TabCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// tabIDFromRequest looks at the header, then the cookie, then ?tabId=.
func tabIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(TabHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(TabCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return strings.TrimSpace(r.URL.Query().Get("tabId"))
}

func newTabID() string {
	return uuid.NewString()
}
