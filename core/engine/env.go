package engine

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Well known environment variables.
const (
	EnvPwd          = "PWD"
	EnvOldPwd       = "OLDPWD"
	EnvHome         = "HOME"
	EnvPath         = "PATH"
	EnvLastExitCode = "LAST_EXIT_CODE"
)

// NewEnv creates an empty environment.
func NewEnv() *Env {
	return &Env{}
}

// NewEnvFromList creates an environment from KEY=VALUE entries such as the
// ones returned by os.Environ.
func NewEnvFromList(environ []string) *Env {
	out := &Env{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Setenv(key, value)
	}

	return out
}

// Env is the environment variable table of a stack frame.
type Env struct {
	rw  sync.RWMutex
	env map[string]string
}

// Unsetenv removes a variable.
func (m *Env) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// Setenv sets a variable.
func (m *Env) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// LookupEnv gets a variable, reporting whether it was set.
func (m *Env) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv gets a variable or the empty string.
func (m *Env) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// ExpandEnv replaces $VAR and ${VAR} in s.
func (m *Env) ExpandEnv(s string) string {
	return os.Expand(s, m.Getenv)
}

// Environ returns the table as sorted KEY=VALUE entries.
func (m *Env) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}

// Keys returns the sorted variable names.
func (m *Env) Keys() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	keys := make([]string, 0, len(m.env))
	for k := range m.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (m *Env) Clone() *Env {
	m.rw.RLock()
	defer m.rw.RUnlock()

	out := &Env{env: make(map[string]string, len(m.env))}
	for k, v := range m.env {
		out.env[k] = v
	}
	return out
}

// ReplaceWith makes the table an exact copy of src, including removals.
func (m *Env) ReplaceWith(src *Env) {
	if m == src {
		return
	}
	clone := src.Clone()

	m.rw.Lock()
	defer m.rw.Unlock()
	m.env = clone.env
}
