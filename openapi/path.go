package openapi

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/vitalvas/oasgen/schema"
)

// pathVarRegexp matches typed placeholders in both the converter form
// "<int:id>" / "<id>" and the router form "{id}" / "{id:int}" /
// "{id:[0-9]+}".
var pathVarRegexp = regexp.MustCompile(
	`<(?:([A-Za-z_][A-Za-z0-9_]*):)?([A-Za-z_][A-Za-z0-9_]*)>` +
		`|\{([A-Za-z_][A-Za-z0-9_]*)(?::((?:[^{}]|\{[^{}]*\})*))?\}`,
)

// converterTypes maps placeholder types to JSON Schema type and format.
var converterTypes = map[string][2]string{
	"int":    {"integer", ""},
	"float":  {"number", ""},
	"uuid":   {"string", "uuid"},
	"date":   {"string", "date"},
	"[0-9]+": {"integer", ""},
	`\d+`:    {"integer", ""},
}

// parsePath rewrites typed placeholders to plain OpenAPI placeholders and
// returns the path parameters in left-to-right order.
//
// See: https://spec.openapis.org/oas/v3.1.0#path-templating
func parsePath(pattern string) (string, []*Parameter) {
	var params []*Parameter

	path := pathVarRegexp.ReplaceAllStringFunc(pattern, func(match string) string {
		m := pathVarRegexp.FindStringSubmatch(match)
		name, kind := m[2], m[1]
		if name == "" {
			name, kind = m[3], m[4]
		}

		param := &Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: schema.TypeOf("string")},
		}
		if info, ok := converterTypes[kind]; ok {
			param.Schema = &Schema{Type: schema.TypeOf(info[0]), Format: info[1]}
		}

		params = append(params, param)
		return "{" + name + "}"
	})

	return path, params
}

// pathAssembler groups operations by normalized path.
type pathAssembler struct {
	paths  map[string]*PathItem
	logger *zap.Logger
}

func newPathAssembler(logger *zap.Logger) *pathAssembler {
	return &pathAssembler{
		paths:  make(map[string]*PathItem),
		logger: logger,
	}
}

// add places op under path and reports whether it was kept. A method
// already present on the path is kept and the later registration is
// dropped with a warning.
func (p *pathAssembler) add(path, method string, op *Operation, route Route) bool {
	item, ok := p.paths[path]
	if !ok {
		item = &PathItem{}
		p.paths[path] = item
	}

	if item.operation(method) != nil {
		p.logger.Warn("duplicate operation ignored",
			zap.String("path", path),
			zap.String("method", method),
			zap.String("pattern", route.Pattern),
		)
		return false
	}
	item.setOperation(method, op)
	return true
}
