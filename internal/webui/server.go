// Package webui exposes a minimal HTTP server with an HTML form that runs a
// generation round against a CSV/JSON source and shows the evaluation scores
// plus a preview of the synthetic rows.
//
// Routes:
//
//	GET  /             → form
//	POST /generate     → runs a round with form inputs; renders results inline
//	GET  /api/generate → machine-friendly API, returns the report document as JSON
package webui

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"tabsynth/internal/ingest"
	"tabsynth/internal/pipeline"
	"tabsynth/internal/report"
	"tabsynth/internal/synth"
	"tabsynth/internal/table"
)

// previewRows caps the synthetic rows echoed back to the form.
const previewRows = 10

// Config controls server startup.
type Config struct {
	Addr string
}

// Server wraps http.Server for convenience.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	tmpl *template.Template
}

// NewServer constructs a Server with routes and embedded template.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
		// Parse the embedded template at init time.
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
	}
	s.routes()
	return s
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.cfg.Addr, s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/generate", s.handleAPIGenerate)
}

// roundParams carries one generation request taken from a form or query.
type roundParams struct {
	Source  string
	Backend string
	Key     string
	Rows    int
	Seed    int64
}

// pageData feeds the index template; the zero value renders the empty form.
type pageData struct {
	Source     string
	Backend    string
	Key        string
	Rows       int
	Seed       int64
	RunID      string
	ResultText string
}

func paramsFromValues(get func(string) string) roundParams {
	rows, _ := strconv.Atoi(strings.TrimSpace(get("rows")))
	seed, _ := strconv.ParseInt(strings.TrimSpace(get("seed")), 10, 64)
	return roundParams{
		Source:  strings.TrimSpace(get("source")),
		Backend: strings.TrimSpace(get("backend")),
		Key:     strings.TrimSpace(get("key")),
		Rows:    rows,
		Seed:    seed,
	}
}

// runRound loads the source, samples the requested backend and evaluates the
// result. A zero row count defaults to the source row count; an empty backend
// defaults to composite.
func runRound(ctx context.Context, p roundParams) (report.Document, *table.Table, error) {
	if p.Source == "" {
		return report.Document{}, nil, fmt.Errorf("source is required")
	}
	backend := p.Backend
	if backend == "" {
		backend = "composite"
	}

	tbl, err := ingest.LoadPath(ctx, p.Source)
	if err != nil {
		return report.Document{}, nil, fmt.Errorf("load: %w", err)
	}
	rows := p.Rows
	if rows <= 0 {
		rows = tbl.NumRows()
	}

	res, err := pipeline.Generate(ctx, tbl, backend, p.Key, rows, synth.Options{Seed: p.Seed})
	if err != nil {
		return report.Document{}, nil, fmt.Errorf("generate: %w", err)
	}

	diag := report.Diagnose(tbl, res.Synthetic, res.Schema)
	qual, err := report.Quality(ctx, tbl, res.Synthetic, res.Schema, report.QualityOptions{})
	if err != nil {
		return report.Document{}, nil, fmt.Errorf("evaluate: %w", err)
	}

	doc := report.Document{
		Run: report.RunInfo{
			RunID:        res.RunID,
			Backend:      res.Backend,
			Seed:         res.Seed,
			Rows:         res.Synthetic.NumRows(),
			SourceDigest: tbl.Digest(),
			Elapsed:      res.Elapsed,
		},
		Diagnostic: &diag,
		Quality:    &qual,
	}
	return doc, res.Synthetic, nil
}

// handleIndex renders the input form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	_ = s.tmpl.Execute(w, pageData{})
}

// handleGenerate processes the form and renders a results page.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}
	p := paramsFromValues(r.FormValue)

	doc, synthetic, err := runRound(r.Context(), p)
	if err != nil {
		http.Error(w, "generate failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	var text strings.Builder
	text.WriteString(doc.Diagnostic.String())
	text.WriteByte('\n')
	text.WriteString(doc.Quality.String())
	text.WriteByte('\n')
	text.WriteString(previewCSV(synthetic, previewRows))

	data := pageData{
		Source:     p.Source,
		Backend:    p.Backend,
		Key:        p.Key,
		Rows:       p.Rows,
		Seed:       p.Seed,
		RunID:      doc.Run.RunID,
		ResultText: text.String(),
	}
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Println("template error:", err)
	}
}

// handleAPIGenerate returns the full report document as JSON so scripts can
// curl it easily.
func (s *Server) handleAPIGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := paramsFromValues(q.Get)

	doc, _, err := runRound(r.Context(), p)
	if err != nil {
		http.Error(w, "generate failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := report.WriteJSON(w, doc); err != nil {
		log.Println("encode error:", err)
	}
}

// previewCSV renders the header and the first n rows as CSV lines.
func previewCSV(tbl *table.Table, n int) string {
	var b strings.Builder
	b.WriteString("preview:\n")
	b.WriteString(strings.Join(tbl.Columns(), ","))
	b.WriteByte('\n')
	if n > tbl.NumRows() {
		n = tbl.NumRows()
	}
	for i := 0; i < n; i++ {
		cells := make([]string, 0, tbl.NumColumns())
		for _, v := range tbl.Row(i) {
			if v == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, table.Label(v))
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// indexHTML is an embedded, minimal page with vanilla styling.
//
//go:embed index.tmpl.html
var indexHTML string
