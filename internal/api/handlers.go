package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"quarry/internal/errors"
	"quarry/internal/paths"
	"quarry/internal/results"
	"quarry/internal/search"
)

// htmlNeutralizer defangs the embedded JSON so it cannot terminate the
// surrounding script tag or open a new one.
var htmlNeutralizer = strings.NewReplacer(
	"</", "<\\/",
	"<script", "<\\script",
	"<!", "<\\!",
)

func queryParams(r *http.Request) search.Params {
	q := r.URL.Query()
	return search.Params{
		Query:      q.Get("q"),
		FoldCase:   q.Get("case") != "true",
		Regexp:     q.Get("regexp") == "true",
		PathFilter: q.Get("path"),
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var qerr *errors.QuarryError
	if stderrors.As(err, &qerr) {
		WriteQuarryError(w, qerr)
		return
	}
	WriteError(w, err, http.StatusInternalServerError)
}

func serveHTML(w http.ResponseWriter, data []byte) {
	w.Header().Set("Vary", "Accept")
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// handleHelp serves the main tree's help document
func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	indexPath, ok := s.cfg.IndexPath(s.cfg.MainTree())
	if !ok {
		WriteQuarryError(w, errors.New(errors.TreeNotFound, "no trees configured", nil))
		return
	}

	data, err := os.ReadFile(filepath.Join(indexPath, "help.html"))
	if err != nil {
		WriteQuarryError(w, errors.New(errors.IndexMissing, "help document missing", err))
		return
	}
	serveHTML(w, data)
}

// handleSource serves rendered source pages: a file page when one
// exists, the directory index otherwise, and the static root as the
// last resort.
func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	tree := r.PathValue("tree")
	indexPath, ok := s.cfg.IndexPath(tree)
	if !ok {
		WriteQuarryError(w, errors.New(errors.TreeNotFound, "unknown tree: "+tree, nil))
		return
	}

	rest := strings.Join(paths.SplitRequestPath(r.PathValue("rest")), "/")

	if filename, ok := paths.SafeJoin(indexPath, "file", rest); ok {
		if data, err := os.ReadFile(filename); err == nil {
			serveHTML(w, data)
			return
		}
	}

	if filename, ok := paths.SafeJoin(indexPath, "dir", rest, "index.html"); ok {
		if data, err := os.ReadFile(filename); err == nil {
			serveHTML(w, data)
			return
		}
	}

	s.handleStatic(w, r)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.runQuery(w, r, "search.html", s.searcher.Search)
}

func (s *Server) handleSorch(w http.ResponseWriter, r *http.Request) {
	s.runQuery(w, r, "sorch.html", s.searcher.Sorch)
}

// runQuery executes one query endpoint and renders the result as JSON
// or as the tree's HTML template with the JSON embedded.
func (s *Server) runQuery(w http.ResponseWriter, r *http.Request, template string,
	run func(ctx context.Context, tree string, p search.Params) (*results.Tree, error)) {
	tree := r.PathValue("tree")
	indexPath, ok := s.cfg.IndexPath(tree)
	if !ok {
		WriteQuarryError(w, errors.New(errors.TreeNotFound, "unknown tree: "+tree, nil))
		return
	}

	result, err := run(r.Context(), tree, queryParams(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	// A nil result means the query was too trivial to run. MarshalJSON is
	// called directly: encoding/json would re-escape < and > in its output,
	// hiding the sequences the neutralizer below defangs.
	body := []byte("{}")
	if result != nil {
		body, err = result.MarshalJSON()
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	if strings.Contains(r.Header.Get("Accept"), "json") {
		w.Header().Set("Vary", "Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
		return
	}

	tmpl, err := os.ReadFile(filepath.Join(indexPath, "templates", template))
	if err != nil {
		WriteQuarryError(w, errors.New(errors.IndexMissing, "search template missing", err))
		return
	}
	page := strings.ReplaceAll(string(tmpl), "{{BODY}}", htmlNeutralizer.Replace(string(body)))
	page = strings.ReplaceAll(page, "{{TITLE}}", "Search")
	serveHTML(w, []byte(page))
}

// handleDefine redirects to the source view of a symbol's first
// definition, anchored at its line.
func (s *Server) handleDefine(w http.ResponseWriter, r *http.Request) {
	tree := r.PathValue("tree")
	if _, ok := s.cfg.IndexPath(tree); !ok {
		WriteQuarryError(w, errors.New(errors.TreeNotFound, "unknown tree: "+tree, nil))
		return
	}

	symbol := r.URL.Query().Get("q")
	if symbol == "" {
		WriteQuarryError(w, errors.New(errors.QueryTooBroad, "missing q parameter", nil))
		return
	}

	path, lno, err := s.searcher.Define(tree, symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}

	target := "/" + tree + "/source/" + path + "#" + strconv.Itoa(lno)
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

// handleStatic serves anything no dynamic handler claimed
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	s.static.ServeHTTP(w, r)
}
