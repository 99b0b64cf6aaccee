package mux

// defaultPattern matches one path segment.
const defaultPattern = `[^/]+`

// patternMacros maps macro and converter names to their patterns.
// Used as {name:macro} and <macro:name>.
var patternMacros = map[string]string{
	"string":   defaultPattern,
	"path":     `.+`,
	"uuid":     `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	"int":      `[0-9]+`,
	"float":    `[0-9]*\.?[0-9]+`,
	"slug":     `[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`,
	"alpha":    `[a-zA-Z]+`,
	"alphanum": `[a-zA-Z0-9]+`,
	"date":     `[0-9]{4}-[0-9]{2}-[0-9]{2}`,
	"hex":      `[0-9a-fA-F]+`,
}

// expandMacro returns the regexp pattern for a macro name. Unknown names
// are returned unchanged with ok set to false.
func expandMacro(name string) (pattern string, ok bool) {
	if p, found := patternMacros[name]; found {
		return p, true
	}
	return name, false
}
