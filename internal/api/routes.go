package api

import "net/http"

// registerRoutes registers all routes. Every dynamic handler runs
// behind the isolation supervisor; a hung or crashing query must not
// take the listener down with it.
func (s *Server) registerRoutes() {
	isolate := func(h http.HandlerFunc) http.Handler {
		return Isolate(s.requestTimeout, s.logger, h)
	}

	s.router.Handle("GET /{$}", isolate(s.handleHelp))
	s.router.Handle("GET /{tree}/source/{rest...}", isolate(s.handleSource))
	s.router.Handle("GET /{tree}/search", isolate(s.handleSearch))
	s.router.Handle("GET /{tree}/sorch", isolate(s.handleSorch))
	s.router.Handle("GET /{tree}/define", isolate(s.handleDefine))

	// Everything else falls through to the static root
	s.router.Handle("/", isolate(s.handleStatic))
}
