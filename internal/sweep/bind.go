package sweep

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Argument-binding errors. All fatal; each is reported with the full set of
// declared parameters so the user can correct the invocation.
var (
	ErrMissingArgument        = errors.New("missing required argument")
	ErrDuplicateNamedArgument = errors.New("duplicate named argument")
	ErrUnknownNamedArgument   = errors.New("unknown named argument")
)

// harnessErrorTag marks characterizer-emitted error lines; the probe's
// parameter report is written in this error format.
const harnessErrorTag = "emixa-error"

// Param is one parameter declared by the harness for a test, discovered by
// the zero-argument probe invocation.
type Param struct {
	Name       string
	Default    string
	HasDefault bool
}

func paramNames(decls []Param) string {
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	return strings.Join(names, ", ")
}

// defaultSuffix matches the "(got <value>)" tail the harness appends to a
// parameter report line when the parameter has a default.
var defaultSuffix = regexp.MustCompile(`\(got ([^)\s]+)\)\s*$`)

// parseProbeParams extracts the declared parameters from the probe
// invocation's error report. Each report line carries the parameter name as
// its third whitespace-delimited token, for example:
//
//	[emixa-error] Parameter width not specified (got 32)
func parseProbeParams(output string) []Param {
	var decls []Param
	seen := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, harnessErrorTag) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		p := Param{Name: fields[2]}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		if m := defaultSuffix.FindStringSubmatch(line); m != nil {
			p.Default = m[1]
			p.HasDefault = true
		}
		decls = append(decls, p)
	}
	return decls
}

// splitNamed splits a name=value token; ok is false for purely positional
// tokens. Range tokens may appear on either side of the binding.
func splitNamed(token string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(token, "=")
	if !ok || name == "" {
		return "", "", false
	}
	return name, value, true
}

// bindArgs assigns raw argument tokens to the declared parameters, one
// bound token per declaration in declaration order. Named bindings claim
// their parameter first; remaining declarations take positional tokens in
// order; anything still unbound falls back to its declared default.
func bindArgs(decls []Param, tokens []string) ([]string, error) {
	named := make(map[string]string)
	var positional []string
	for _, tok := range tokens {
		if name, value, ok := splitNamed(tok); ok {
			if _, dup := named[name]; dup {
				return nil, fmt.Errorf("%w: %s (expected parameters: %s)", ErrDuplicateNamedArgument, name, paramNames(decls))
			}
			named[name] = value
			continue
		}
		positional = append(positional, tok)
	}

	declared := make(map[string]bool, len(decls))
	for _, d := range decls {
		declared[d.Name] = true
	}
	for name := range named {
		if !declared[name] {
			return nil, fmt.Errorf("%w: %s (expected parameters: %s)", ErrUnknownNamedArgument, name, paramNames(decls))
		}
	}

	bound := make([]string, len(decls))
	next := 0
	for i, d := range decls {
		switch {
		case hasKey(named, d.Name):
			bound[i] = named[d.Name]
		case next < len(positional):
			bound[i] = positional[next]
			next++
		case d.HasDefault:
			bound[i] = d.Default
		default:
			return nil, fmt.Errorf("%w: %s (expected parameters: %s)", ErrMissingArgument, d.Name, paramNames(decls))
		}
	}
	// Extra positional tokens beyond the declared parameters are ignored,
	// matching the harness's own behavior of discarding surplus arguments.
	return bound, nil
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}
