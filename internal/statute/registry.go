package statute

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/legal-lens/backend/internal/storage/models"
)

// Reference is a statute citation extracted from free text.
type Reference struct {
	Code    string
	Section string
}

// Patterns are tried in order; the first match wins. A query containing
// several distinct references therefore resolves only the first one, which
// mirrors the historical extraction behavior.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bIPC\s*(?:section\s*)?(\d+[A-Za-z]?)`),
	regexp.MustCompile(`(?i)\bsection\s*(\d+[A-Za-z]?)(?:\s*of\s*IPC)?`),
	regexp.MustCompile(`(?i)\bCrPC\s*(?:section\s*)?(\d+[A-Za-z]?)`),
	regexp.MustCompile(`(?i)\b(\d+[A-Za-z]?)\s*IPC\b`),
}

// Registry holds the legacy-to-current statute mapping set. Lookups are
// read-only at query time; Replace is the single writer.
type Registry struct {
	mu       sync.RWMutex
	mappings map[string]models.StatuteMapping
	ordered  []models.StatuteMapping
}

func NewRegistry(mappings []models.StatuteMapping) *Registry {
	r := &Registry{}
	r.Replace(mappings)
	return r
}

// Replace swaps the whole mapping set. Serialized; readers see either the
// old set or the new one.
func (r *Registry) Replace(mappings []models.StatuteMapping) {
	indexed := make(map[string]models.StatuteMapping, len(mappings))
	ordered := make([]models.StatuteMapping, 0, len(mappings))
	for _, m := range mappings {
		key := mappingKey(m.OldCode, m.OldSection)
		if _, exists := indexed[key]; exists {
			// at most one successor per (old_code, old_section)
			continue
		}
		indexed[key] = m
		ordered = append(ordered, m)
	}

	r.mu.Lock()
	r.mappings = indexed
	r.ordered = ordered
	r.mu.Unlock()
}

// Resolve looks up the successor mapping for an old statute section.
// A miss is a normal outcome, not an error.
func (r *Registry) Resolve(code, section string) (models.StatuteMapping, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.mappings[mappingKey(code, section)]
	return m, ok
}

// All returns the current mapping set in load order.
func (r *Registry) All() []models.StatuteMapping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.StatuteMapping, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ExtractReference finds the first statute citation in the query text.
// The code defaults to IPC when the query carries no code token.
func ExtractReference(query string) (Reference, bool) {
	for _, p := range patterns {
		match := p.FindStringSubmatch(query)
		if match == nil {
			continue
		}

		code := "IPC"
		if strings.Contains(strings.ToLower(query), "crpc") {
			code = "CrPC"
		}

		return Reference{
			Code:    code,
			Section: strings.ToUpper(match[1]),
		}, true
	}

	return Reference{}, false
}

func mappingKey(code, section string) string {
	return fmt.Sprintf("%s_%s", code, section)
}
