package openapi

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vitalvas/oasgen/schema"
)

// Processor post-processes every freshly built document. Its result
// replaces the built document.
type Processor func(doc *Document) (*Document, error)

// Synthesizer builds the OpenAPI document for a route table and caches it.
// The cached document is replaced atomically, so concurrent readers see
// either the previous or the new document, never a partial one.
type Synthesizer struct {
	table     RouteTable
	cfg       *Config
	logger    *zap.Logger
	metrics   *Metrics
	processor Processor
	resolver  schema.Resolver

	cached     atomic.Pointer[Document]
	generation atomic.Uint64

	mirrorMu sync.Mutex
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// WithMetrics records build metrics.
func WithMetrics(m *Metrics) SynthesizerOption {
	return func(s *Synthesizer) {
		s.metrics = m
	}
}

// WithProcessor sets the post-processing hook, invoked last on every build.
func WithProcessor(p Processor) SynthesizerOption {
	return func(s *Synthesizer) {
		s.processor = p
	}
}

// WithResolver restricts the schema systems used to resolve schemas.
func WithResolver(r schema.Resolver) SynthesizerOption {
	return func(s *Synthesizer) {
		s.resolver = r
	}
}

// New creates a Synthesizer. A nil cfg uses DefaultConfig.
func New(table RouteTable, cfg *Config, opts ...SynthesizerOption) (*Synthesizer, error) {
	if table == nil {
		return nil, configError("synthesizer", "route table is required", nil)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Synthesizer{
		table:  table,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the synthesizer settings.
func (s *Synthesizer) Config() *Config {
	return s.cfg
}

// Document returns the cached document, building it when none is cached
// or force is set. Every build increments the generation.
func (s *Synthesizer) Document(force bool) (*Document, error) {
	return s.document(force, formatForPath(s.cfg.LocalSpecPath))
}

// document returns the cached or freshly built document. A fresh build is
// mirrored to the local spec path in format.
func (s *Synthesizer) document(force bool, format string) (*Document, error) {
	if !force {
		if doc := s.cached.Load(); doc != nil {
			s.metrics.cacheHit()
			return doc, nil
		}
	}

	start := time.Now()
	doc, schemas, err := s.build()
	s.metrics.observeBuild(err, time.Since(start), schemas)
	if err != nil {
		return nil, err
	}

	s.cached.Store(doc)
	gen := s.generation.Add(1)

	s.logger.Debug("openapi document built",
		zap.Uint64("generation", gen),
		zap.Int("paths", len(doc.Paths)),
		zap.Int("schemas", schemas),
		zap.Duration("elapsed", time.Since(start)),
	)

	if s.cfg.SyncLocalSpec && s.cfg.LocalSpecPath != "" {
		if err := s.mirror(doc, format); err != nil {
			s.logger.Error("failed to write local spec",
				zap.String("path", s.cfg.LocalSpecPath),
				zap.Error(err),
			)
		}
	}
	return doc, nil
}

// Render returns the document in format (json, yaml or yml). JSON is
// indented by LocalSpecIndent. A fresh build is mirrored in the same format.
func (s *Synthesizer) Render(format string, force bool) ([]byte, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	doc, err := s.document(force, format)
	if err != nil {
		return nil, err
	}
	return render(doc, format, s.cfg.LocalSpecIndent)
}

// Generation returns the number of documents built so far.
func (s *Synthesizer) Generation() uint64 {
	return s.generation.Load()
}

// Invalidate drops the cached document. The next Document call rebuilds.
func (s *Synthesizer) Invalidate() {
	s.cached.Store(nil)
}

// mirror writes doc in format to the local spec path when the rendered
// bytes differ from the file content.
func (s *Synthesizer) mirror(doc *Document, format string) error {
	data, err := render(doc, format, s.cfg.LocalSpecIndent)
	if err != nil {
		return err
	}

	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()

	current, err := os.ReadFile(s.cfg.LocalSpecPath)
	if err == nil && bytes.Equal(current, data) {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.WriteFile(s.cfg.LocalSpecPath, data, 0o644)
}

// build runs one synthesis pass and returns the document and the number
// of component schemas.
func (s *Synthesizer) build() (*Document, int, error) {
	cfg := s.cfg
	registry := NewRegistry(s.resolver)
	security := newSecurityResolver()
	ops := &operationBuilder{cfg: cfg, registry: registry, security: security}
	paths := newPathAssembler(s.logger)
	ids := make(uniqueIDs)

	var routes []Route
	for _, route := range s.table.Routes() {
		if route.Scope != nil && !route.Scope.Enabled() {
			continue
		}
		routes = append(routes, route)
	}

	if err := s.discoverSecurity(routes, security); err != nil {
		return nil, 0, err
	}

	for _, route := range routes {
		path, pathParams := parsePath(route.Pattern)
		for _, method := range route.Methods {
			method = strings.ToUpper(method)
			if !slices.Contains(methodOrder, method) {
				continue
			}

			meta, _ := s.table.Metadata(route.Handler, method)
			op, err := ops.build(route, method, meta, pathParams)
			if err != nil {
				return nil, 0, fmt.Errorf("%s %s: %w", method, route.Pattern, err)
			}
			if op == nil {
				continue
			}
			if paths.add(path, method, op, route) {
				op.OperationID = ids.claim(op.OperationID)
			}
		}
	}

	doc := &Document{
		OpenAPI:      cfg.Version,
		Info:         s.info(),
		Servers:      slices.Clone(cfg.Servers),
		Tags:         s.tags(),
		Paths:        paths.paths,
		ExternalDocs: cfg.ExternalDocs,
	}

	schemes := security.Schemes()
	maps.Copy(schemes, cfg.SecuritySchemes)
	if registry.Len() > 0 || len(schemes) > 0 {
		doc.Components = &Components{}
		if registry.Len() > 0 {
			doc.Components.Schemas = registry.Schemas()
		}
		if len(schemes) > 0 {
			doc.Components.SecuritySchemes = schemes
		}
	}

	if s.processor != nil {
		processed, err := s.processor(doc)
		if err != nil {
			return nil, 0, fmt.Errorf("process document: %w", err)
		}
		if processed == nil {
			return nil, 0, configError("processor", "processor returned no document", nil)
		}
		doc = processed
	}

	return doc, registry.Len(), nil
}

// discoverSecurity names authentication objects in discovery order:
// shorter paths first, scope auth before route auth.
func (s *Synthesizer) discoverSecurity(routes []Route, security *securityResolver) error {
	ordered := slices.Clone(routes)
	slices.SortStableFunc(ordered, func(a, b Route) int {
		return len(a.Pattern) - len(b.Pattern)
	})

	for _, route := range ordered {
		if route.Scope != nil {
			for _, sc := range route.Scope.chain() {
				if sc.Auth == nil {
					continue
				}
				if err := security.discover(sc.Auth); err != nil {
					return err
				}
			}
		}

		for _, method := range route.Methods {
			meta, ok := s.table.Metadata(route.Handler, strings.ToUpper(method))
			if !ok || meta.hide || meta.auth == nil {
				continue
			}
			if err := security.discover(meta.auth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Synthesizer) info() Info {
	cfg := s.cfg

	var info Info
	if cfg.InfoBase != nil {
		info = *cfg.InfoBase
	}

	explicit := cfg.Info
	info.Title = first(explicit.Title, info.Title)
	info.Summary = first(explicit.Summary, info.Summary)
	info.Description = first(explicit.Description, info.Description)
	info.TermsOfService = first(explicit.TermsOfService, info.TermsOfService)
	info.Version = first(explicit.Version, info.Version)
	if explicit.Contact != nil {
		info.Contact = explicit.Contact
	}
	if explicit.License != nil {
		info.License = explicit.License
	}

	info.Title = first(info.Title, "API")
	info.Version = first(info.Version, "1.0.0")
	if info.Description == "" && cfg.AutoDescription {
		info.Description = strings.TrimSpace(cfg.AppDescription)
	}
	return info
}

// tags returns the configured tags, or one tag per enabled scope in
// registration order.
func (s *Synthesizer) tags() []Tag {
	if len(s.cfg.Tags) > 0 {
		return slices.Clone(s.cfg.Tags)
	}
	if !s.cfg.AutoTags {
		return nil
	}

	var tags []Tag
	seen := make(map[string]bool)
	for _, sc := range s.table.Scopes() {
		if !sc.Enabled() {
			continue
		}
		name := sc.TagName()
		if seen[name] {
			continue
		}
		seen[name] = true

		tag := Tag{Name: name}
		if sc.Tag != nil {
			tag.Description = sc.Tag.Description
			tag.ExternalDocs = sc.Tag.ExternalDocs
		}
		tags = append(tags, tag)
	}
	return tags
}
