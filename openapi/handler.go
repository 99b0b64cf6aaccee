package openapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vitalvas/oasgen/mux"
)

// Mount registers the spec endpoint and, when enabled, the docs UI page.
// The spec is served as YAML when SpecPath ends in .yaml or .yml.
func (s *Synthesizer) Mount(r *mux.Router) {
	r.HandleFunc(s.cfg.SpecPath, s.serveSpec).Methods(http.MethodGet)

	if s.cfg.EnableDocs {
		r.HandleFunc(s.cfg.DocsPath, s.serveDocs).Methods(http.MethodGet)
	}
}

func (s *Synthesizer) serveSpec(w http.ResponseWriter, _ *http.Request) {
	format := s.cfg.SpecFormat()

	data, err := s.Render(format, false)
	if err != nil {
		s.logger.Error("failed to render openapi document", zap.Error(err))
		http.Error(w, "failed to render OpenAPI document", http.StatusInternalServerError)
		return
	}

	contentType := s.cfg.JSONMimetype
	if format == FormatYAML {
		contentType = s.cfg.YAMLMimetype
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Synthesizer) serveDocs(w http.ResponseWriter, _ *http.Request) {
	title := s.info().Title

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := docsPage(s.cfg.DocsUI, title, s.cfg.SpecPath).Render(w); err != nil {
		s.logger.Error("failed to render docs page", zap.Error(err))
	}
}
