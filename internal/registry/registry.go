// Package registry keeps a flat-file record of named pipeline capabilities
// and their usage statistics. Lookup is scored field matching; registration
// and usage updates rewrite the whole file, which is small by construction.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Version is the registry file schema version
const Version = "1.0"

// Capability is one registered capability record
type Capability struct {
	Name         string     `json:"name"`
	Domain       string     `json:"domain,omitempty"`
	Action       string     `json:"action,omitempty"`
	Subject      string     `json:"subject,omitempty"`
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	Location     string     `json:"location"`
	UsageCount   int        `json:"usage_count"`
	SuccessCount int        `json:"success_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastUsed     *time.Time `json:"last_used,omitempty"`
}

// Query selects capabilities by field equality; empty fields match anything
type Query struct {
	Domain       string
	Action       string
	Subject      string
	Jurisdiction string
}

// Match is a scored query result
type Match struct {
	Capability Capability
	Score      int
}

type registryFile struct {
	Version string                `json:"version"`
	Caps    map[string]Capability `json:"capabilities"`
}

// Registry is the in-memory view of the registry file
type Registry struct {
	path string
	caps map[string]Capability
}

// nowFunc is injectable for tests
var nowFunc = time.Now

// Load reads the registry from path. A missing or corrupt file degrades to
// an empty registry with a warning, never an error: a broken registry must
// not block a run.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path, caps: make(map[string]Capability)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load registry: %v\n", err)
		return r, nil
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to parse registry: %v\n", err)
		return r, nil
	}

	if file.Caps != nil {
		r.caps = file.Caps
	}
	return r, nil
}

// Save writes the registry back to its file
func (r *Registry) Save() error {
	file := registryFile{Version: Version, Caps: r.caps}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// Register adds or updates a capability, preserving usage counters on update
func (r *Registry) Register(cap Capability) {
	now := nowFunc()

	if existing, ok := r.caps[cap.Name]; ok {
		cap.UsageCount = existing.UsageCount
		cap.SuccessCount = existing.SuccessCount
		cap.CreatedAt = existing.CreatedAt
		cap.LastUsed = existing.LastUsed
	} else {
		cap.CreatedAt = now
	}
	if cap.Location == "" {
		cap.Location = "unknown"
	}
	cap.UpdatedAt = now

	r.caps[cap.Name] = cap
}

// Find returns capabilities matching the query, best first. Scoring:
// subject 3, domain 2, action 2, jurisdiction 1; at least one field must
// match. Ties break on usage count, then name for determinism.
func (r *Registry) Find(q Query) []Match {
	var matches []Match

	for _, cap := range r.caps {
		score := 0
		if q.Domain != "" && cap.Domain == q.Domain {
			score += 2
		}
		if q.Action != "" && cap.Action == q.Action {
			score += 2
		}
		if q.Subject != "" && cap.Subject == q.Subject {
			score += 3
		}
		if q.Jurisdiction != "" && cap.Jurisdiction == q.Jurisdiction {
			score += 1
		}
		if score > 0 {
			matches = append(matches, Match{Capability: cap, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Capability.UsageCount != matches[j].Capability.UsageCount {
			return matches[i].Capability.UsageCount > matches[j].Capability.UsageCount
		}
		return matches[i].Capability.Name < matches[j].Capability.Name
	})

	return matches
}

// List returns all capabilities sorted by name
func (r *Registry) List() []Capability {
	caps := make([]Capability, 0, len(r.caps))
	for _, cap := range r.caps {
		caps = append(caps, cap)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].Name < caps[j].Name })
	return caps
}

// Use increments usage statistics for a capability
func (r *Registry) Use(name string, success bool) error {
	cap, ok := r.caps[name]
	if !ok {
		return fmt.Errorf("capability not found: %s", name)
	}

	now := nowFunc()
	cap.UsageCount++
	if success {
		cap.SuccessCount++
	}
	cap.LastUsed = &now
	r.caps[name] = cap

	return nil
}

// Remove deletes a capability
func (r *Registry) Remove(name string) error {
	if _, ok := r.caps[name]; !ok {
		return fmt.Errorf("capability not found: %s", name)
	}
	delete(r.caps, name)
	return nil
}

// DefaultPath returns the default registry file location
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "registry.json"
	}
	return filepath.Join(home, ".veridraft", "registry.json")
}
