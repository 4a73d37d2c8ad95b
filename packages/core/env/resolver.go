package env

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/fetchagent/packages/relay"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// LookupFunc reads an environment variable
type LookupFunc func(name string) (string, bool)

// Resolver expands placeholders using variables, the process environment
// and the builtin functions.
type Resolver struct {
	variables map[string]string
	lookup    LookupFunc
	funcs     map[string]Func
}

type Option func(*Resolver)

// WithVariables adds named variables; later calls override earlier ones
func WithVariables(vars map[string]string) Option {
	return func(r *Resolver) {
		for k, v := range vars {
			r.variables[k] = v
		}
	}
}

// WithLookup replaces os.LookupEnv
func WithLookup(fn LookupFunc) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.lookup = fn
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		variables: make(map[string]string),
		lookup:    os.LookupEnv,
		funcs:     defaultFuncs(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve expands every placeholder in input. Placeholders that cannot be
// resolved are left in place and reported.
func (r *Resolver) Resolve(input string) (string, []string) {
	var unresolved []string

	out := placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		if val, ok := r.expand(expr); ok {
			return val
		}
		unresolved = append(unresolved, expr)
		return match
	})

	return out, unresolved
}

func (r *Resolver) expand(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		return r.lookup(name)
	}

	if strings.Contains(expr, "(") {
		result, ok := callFunc(r.funcs, expr)
		if !ok {
			return "", false
		}
		return fmt.Sprint(result), true
	}

	val, ok := r.variables[expr]
	return val, ok
}

// ResolveDescription expands placeholders in the URL, header names and
// values, and the body. It fails when any placeholder stays unresolved.
func (r *Resolver) ResolveDescription(desc relay.Description) (relay.Description, error) {
	missing := make(map[string]struct{})
	resolve := func(s string) string {
		out, unresolved := r.Resolve(s)
		for _, u := range unresolved {
			missing[u] = struct{}{}
		}
		return out
	}

	desc.URL = resolve(desc.URL)

	if desc.Headers != nil {
		headers := make(map[string]string, len(desc.Headers))
		for k, v := range desc.Headers {
			headers[resolve(k)] = resolve(v)
		}
		desc.Headers = headers
	}

	if desc.Body != nil {
		body := resolve(*desc.Body)
		desc.Body = &body
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, "{{"+name+"}}")
		}
		sort.Strings(names)
		return desc, fmt.Errorf("unresolved placeholders: %s", strings.Join(names, ", "))
	}

	return desc, nil
}

// ParseVariables turns "name=value" pairs into a variable map
func ParseVariables(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q (use name=value)", pair)
		}
		vars[name] = value
	}
	return vars, nil
}
