package sandbox

import "regexp"

// moduleRegexp finds the first module declaration. This is a lexical
// heuristic; the source may not parse at all.
var moduleRegexp = regexp.MustCompile(`\bmodule\s+([a-zA-Z_]+)\b`)

// ResolveModule returns the name of the first module declared in code.
func ResolveModule(code string) (string, error) {
	m := moduleRegexp.FindStringSubmatch(code)
	if m == nil {
		return "", ErrModuleNotFound
	}
	return m[1], nil
}
