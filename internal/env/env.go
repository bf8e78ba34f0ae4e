package env

import (
	"os"
	"path/filepath"
	"strings"
)

type Var map[string]string

// Env composes the environment handed to the supervised child.
// BinDirs are prepended to PATH so an activated runtime environment
// (e.g. a virtualenv's bin directory) wins over system defaults.
type Env struct {
	Var     Var      // explicit overrides (K->V)
	BinDirs []string // directories prepended to PATH, in order
	env     Var      // cached base from OS environment
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS caches the current process environment as the base.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			v := kv[i+1:]
			if k == "" {
				continue
			}
			base[k] = v
		}
	}
	e.env = base
}

// Set sets an override variable K=V.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// Unset removes an override variable.
func (e *Env) Unset(k string) {
	if e.Var != nil {
		delete(e.Var, k)
	}
}

// Merge composes the final environment list. Order of application:
// base = OS env (or cached), then e.Var overrides, then extra "K=V"
// pairs, then BinDirs are prepended to whatever PATH resulted.
// ${VAR} references are expanded against the composed map (single
// pass, no recursion).
func (e *Env) Merge(extra []string) []string {
	if e.env == nil {
		e.FromOS()
	}
	m := make(Var)
	for k, v := range e.env {
		m[k] = v
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	for _, kv := range extra {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			v := kv[i+1:]
			if k == "" {
				continue
			}
			m[k] = v
		}
	}
	expanded := make(Var, len(m))
	for k, v := range m {
		expanded[k] = expand(v, m)
	}
	if len(e.BinDirs) > 0 {
		expanded["PATH"] = prependPath(expanded["PATH"], e.BinDirs)
	}
	out := make([]string, 0, len(expanded))
	for k, v := range expanded {
		out = append(out, k+"="+v)
	}
	return out
}

// prependPath returns path with dirs placed in front, preserving their
// order and dropping empty entries.
func prependPath(path string, dirs []string) string {
	parts := make([]string, 0, len(dirs)+1)
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		parts = append(parts, filepath.Clean(d))
	}
	if path != "" {
		parts = append(parts, path)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// expand substitutes ${VAR} occurrences in v using m. Unknown
// variables expand to the empty string, matching os.Expand.
func expand(v string, m Var) string {
	if !strings.Contains(v, "${") {
		return v
	}
	return os.Expand(v, func(k string) string {
		return m[k]
	})
}
