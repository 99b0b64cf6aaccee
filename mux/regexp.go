package mux

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// routeRegexp is a compiled path template.
type routeRegexp struct {
	// template is the original template string.
	template string
	// regexp is the compiled regular expression.
	regexp *regexp.Regexp
	// varsN are the variable names in order.
	varsN []string
	// varsI are the submatch indexes of each variable.
	varsI []int
}

// placeholder is one variable found in a template.
type placeholder struct {
	start, end int
	name       string
	pattern    string
}

// newRouteRegexp compiles a path template. A prefix template matches any
// path that starts with it.
func newRouteRegexp(tpl string, prefix bool) (*routeRegexp, error) {
	vars, err := placeholders(tpl)
	if err != nil {
		return nil, err
	}

	var (
		pattern strings.Builder
		names   = make([]string, 0, len(vars))
		end     int
	)

	pattern.WriteByte('^')
	for i, v := range vars {
		pattern.WriteString(regexp.QuoteMeta(tpl[end:v.start]))
		fmt.Fprintf(&pattern, "(?P<v%d>%s)", i, v.pattern)
		end = v.end
		names = append(names, v.name)
	}
	pattern.WriteString(regexp.QuoteMeta(tpl[end:]))
	if !prefix {
		pattern.WriteByte('$')
	}

	if err := checkDuplicateVars(names); err != nil {
		return nil, err
	}

	reg, err := compileRegexp(pattern.String())
	if err != nil {
		return nil, fmt.Errorf("mux: invalid template %q: %w", tpl, err)
	}

	idx := make([]int, len(names))
	for i := range names {
		idx[i] = reg.SubexpIndex("v" + strconv.Itoa(i))
	}

	return &routeRegexp{
		template: tpl,
		regexp:   reg,
		varsN:    names,
		varsI:    idx,
	}, nil
}

// Match reports whether path matches the template.
func (r *routeRegexp) Match(path string) bool {
	return r.regexp.MatchString(path)
}

// vars extracts the variables of path, or nil when the template has none.
func (r *routeRegexp) vars(path string) map[string]string {
	if len(r.varsN) == 0 {
		return nil
	}
	matches := r.regexp.FindStringSubmatch(path)
	if matches == nil {
		return nil
	}
	out := make(map[string]string, len(r.varsN))
	for i, name := range r.varsN {
		out[name] = matches[r.varsI[i]]
	}
	return out
}

// placeholders returns the variables of tpl in order. Brace placeholders
// may nest braces inside their pattern; converter placeholders may not.
func placeholders(tpl string) ([]placeholder, error) {
	var out []placeholder

	for i := 0; i < len(tpl); i++ {
		switch tpl[i] {
		case '{':
			end, err := closingBrace(tpl, i)
			if err != nil {
				return nil, err
			}
			name, patt, _ := strings.Cut(tpl[i+1:end-1], ":")
			if patt == "" {
				patt = defaultPattern
			} else {
				patt, _ = expandMacro(patt)
			}
			if name == "" {
				return nil, fmt.Errorf("mux: missing name in %q from %q", tpl[i:end], tpl)
			}
			out = append(out, placeholder{start: i, end: end, name: name, pattern: patt})
			i = end - 1

		case '}':
			return nil, fmt.Errorf("mux: unbalanced braces in %q", tpl)

		case '<':
			j := strings.IndexByte(tpl[i:], '>')
			if j < 0 {
				return nil, fmt.Errorf("mux: unterminated converter in %q", tpl)
			}
			end := i + j + 1
			conv, name, ok := strings.Cut(tpl[i+1:end-1], ":")
			if !ok {
				conv, name = "string", conv
			}
			patt, known := expandMacro(conv)
			if !known {
				return nil, fmt.Errorf("mux: unknown converter %q in %q", conv, tpl)
			}
			if name == "" {
				return nil, fmt.Errorf("mux: missing name in %q from %q", tpl[i:end], tpl)
			}
			out = append(out, placeholder{start: i, end: end, name: name, pattern: patt})
			i = end - 1
		}
	}

	return out, nil
}

// closingBrace returns the index after the brace closing the one at start.
func closingBrace(s string, start int) (int, error) {
	level := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			level++
		case '}':
			if level--; level == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("mux: unbalanced braces in %q", s)
}

// checkDuplicateVars returns an error if any variable name is repeated.
func checkDuplicateVars(vars []string) error {
	seen := make(map[string]bool, len(vars))
	for _, v := range vars {
		if seen[v] {
			return fmt.Errorf("mux: duplicated route variable %q", v)
		}
		seen[v] = true
	}
	return nil
}

// regexpCache caches compiled regular expressions by pattern string.
// The number of unique patterns is bounded by the number of registered
// routes, so the cache grows to a fixed size and stays there.
var regexpCache sync.Map

// compileRegexp returns a cached *regexp.Regexp for the given pattern,
// compiling and caching it on first use.
func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexpCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	actual, _ := regexpCache.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}
