package server

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	clientHeader = "X-Client-ID"
	clientCookie = "cpcompare_client"
	cookieMaxAge = 90 * 24 * time.Hour
)

// requestClientID returns the caller's id from the header or cookie, or "".
func requestClientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(clientHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(clientCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// clientID returns the caller's id, issuing a new one when absent. The id is
// echoed in the response header and cookie.
func clientID(w http.ResponseWriter, r *http.Request) string {
	id := requestClientID(r)
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     clientCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(cookieMaxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(clientHeader, id)
	return id
}

// limitKey identifies a caller for rate limiting by its address. Client ids
// are chosen by the caller and are not used here.
func limitKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
