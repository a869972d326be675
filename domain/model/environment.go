package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// EnvironmentVariable is one key/value pair passed to a service container.
// Templated values are rendered during deployment unit assembly; variables
// marked Replicate are carried over when an application is cloned from
// another one.
type EnvironmentVariable struct {
	Key       string
	Value     string
	Templated bool
	Replicate bool
}

// Environment is the ordered list of environment variables of one service.
type Environment []EnvironmentVariable

// Get returns the variable with the given key.
func (e Environment) Get(key string) (EnvironmentVariable, bool) {
	for _, v := range e {
		if v.Key == key {
			return v, true
		}
	}
	return EnvironmentVariable{}, false
}

// Replicated returns the variables marked for replication, in order.
func (e Environment) Replicated() Environment {
	var out Environment
	for _, v := range e {
		if v.Replicate {
			out = append(out, v)
		}
	}
	return out
}

// ReplicatedJSON returns the canonical JSON summary of the variables marked
// for replication, or false when there are none. Backends record this on
// deployed workloads so that replicated variables survive reconstruction.
func (e Environment) ReplicatedJSON() (string, bool) {
	rep := e.Replicated()
	if len(rep) == 0 {
		return "", false
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// ParseReplicatedJSON parses a replicated variable summary produced by
// ReplicatedJSON back into an Environment.
func ParseReplicatedJSON(s string) (Environment, error) {
	var env Environment
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, fmt.Errorf("replicated environment summary: %w", err)
	}
	return env, nil
}

// environmentVariableWire is the extended JSON form of a variable value.
type environmentVariableWire struct {
	Value     string `json:"value"`
	Templated bool   `json:"templated,omitempty"`
	Replicate bool   `json:"replicate,omitempty"`
}

// UnmarshalJSON accepts an object whose values are either plain strings or
// the extended {value, templated, replicate} form.
func (e *Environment) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("environment must be an object: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Environment, 0, len(raw))
	for _, k := range keys {
		var s string
		if err := json.Unmarshal(raw[k], &s); err == nil {
			out = append(out, EnvironmentVariable{Key: k, Value: s})
			continue
		}
		var w environmentVariableWire
		if err := json.Unmarshal(raw[k], &w); err != nil {
			return fmt.Errorf("environment variable %s: %w", k, err)
		}
		out = append(out, EnvironmentVariable{Key: k, Value: w.Value, Templated: w.Templated, Replicate: w.Replicate})
	}
	*e = out
	return nil
}

// MarshalJSON emits the extended form for variables carrying flags and the
// plain string form otherwise.
func (e Environment) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e))
	for _, v := range e {
		if v.Templated || v.Replicate {
			out[v.Key] = environmentVariableWire{Value: v.Value, Templated: v.Templated, Replicate: v.Replicate}
		} else {
			out[v.Key] = v.Value
		}
	}
	return json.Marshal(out)
}
