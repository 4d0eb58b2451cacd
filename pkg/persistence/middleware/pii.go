package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/keystone/pkg/domain"
	"github.com/aretw0/keystone/pkg/ports"
)

// Mask replaces every masked value.
const Mask = "***"

type piiMiddleware struct {
	next     ports.HistoryStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks patch values stored under keys matching
// the patterns. A patch is masked when any segment of its path matches; map values are
// masked key by key.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, history *domain.History) error {
	// Clone so the live undo store keeps the real values.
	cloned := history.Clone()
	for i := range cloned.UndoEvents {
		m.maskEvent(&cloned.UndoEvents[i])
	}
	for i := range cloned.RedoEvents {
		m.maskEvent(&cloned.RedoEvents[i])
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.History, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) maskEvent(ev *domain.UndoEvent) {
	m.maskPatches(ev.Patches)
	m.maskPatches(ev.InversePatches)
}

func (m *piiMiddleware) maskPatches(patches []domain.Patch) {
	for i, p := range patches {
		if p.Op == domain.OpRemove {
			continue
		}
		if m.matchesPath(p.Path) {
			patches[i].Value = Mask
			continue
		}
		patches[i].Value = m.maskValue(p.Value)
	}
}

func (m *piiMiddleware) matchesPath(path domain.Path) bool {
	for _, seg := range path {
		if m.matches(seg) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// maskValue returns a masked deep copy of v, leaving v untouched.
func (m *piiMiddleware) maskValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			if m.matches(k) {
				out[k] = Mask
				continue
			}
			out[k] = m.maskValue(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = m.maskValue(sub)
		}
		return out
	default:
		return v
	}
}
