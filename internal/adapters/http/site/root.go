// Package site serves the minimal landing page at the root path.
package site

import (
	"context"
	"net/http"
)

// Register attaches the landing page route to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", handleRoot)
}

// handleRoot serves GET /. Unknown paths fall through here because the
// root pattern matches everything the API routes do not.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Creator Score Service</title>
    <style>body{font-family:sans-serif;margin:2rem;max-width:40rem}</style>
  </head>
  <body>
    <h1>Creator Score Service</h1>
    <p>Scores Farcaster creators and serves a daily leaderboard.</p>
    <ul>
      <li><a href="/api-docs">API documentation</a></li>
      <li><a href="/api/leaderboard">Leaderboard</a></li>
      <li><a href="/stats">Service stats</a></li>
      <li><a href="/healthz">Health</a></li>
      <li><a href="/metrics">Metrics</a></li>
    </ul>
  </body>
</html>`
