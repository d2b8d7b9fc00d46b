package launcher

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Environment builds the launched application's environment without
// touching the launcher's own process environment.
type Environment struct {
	keys   []string
	values map[string]string
	names  map[string]string
}

// NewEnvironment starts from a KEY=VALUE list such as os.Environ().
func NewEnvironment(base []string) *Environment {
	e := &Environment{
		values: make(map[string]string),
		names:  make(map[string]string),
	}
	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		// Windows keeps per-drive entries like "=C:=C:\" that have no name.
		if !ok || key == "" {
			continue
		}
		e.Set(key, value)
	}
	return e
}

func foldKey(key string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(key)
	}
	return key
}

func (e *Environment) Set(key, value string) {
	k := foldKey(key)
	if _, ok := e.values[k]; !ok {
		e.keys = append(e.keys, k)
		e.names[k] = key
	}
	e.values[k] = value
}

// SetDefault sets key only when it is not already present.
func (e *Environment) SetDefault(key, value string) {
	if _, ok := e.Lookup(key); !ok {
		e.Set(key, value)
	}
}

func (e *Environment) Lookup(key string) (string, bool) {
	v, ok := e.values[foldKey(key)]
	return v, ok
}

// PrependPath puts dirs in front of PATH, skipping those already listed.
func (e *Environment) PrependPath(dirs ...string) {
	current, _ := e.Lookup("PATH")
	existing := make(map[string]bool)
	for _, p := range strings.Split(current, string(os.PathListSeparator)) {
		if p != "" {
			existing[foldKey(p)] = true
		}
	}

	var prefix []string
	for _, d := range dirs {
		if d == "" || existing[foldKey(d)] {
			continue
		}
		existing[foldKey(d)] = true
		prefix = append(prefix, d)
	}
	if len(prefix) == 0 {
		return
	}

	entries := prefix
	if current != "" {
		entries = append(entries, current)
	}

	key := "PATH"
	if name, ok := e.names[foldKey("PATH")]; ok {
		key = name
	}
	e.Set(key, strings.Join(entries, string(os.PathListSeparator)))
}

// Environ returns the environment as KEY=VALUE pairs in insertion order.
func (e *Environment) Environ() []string {
	env := make([]string, 0, len(e.keys))
	for _, k := range e.keys {
		env = append(env, e.names[k]+"="+e.values[k])
	}
	return env
}

// ParseAssignments splits KEY=VALUE strings from the configuration.
func ParseAssignments(assignments []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment assignment %q, want KEY=VALUE", a)
		}
		pairs = append(pairs, [2]string{key, value})
	}
	return pairs, nil
}
