// Package registry holds the dialog definitions known to the engine and
// resolves them by id or by intent trigger.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/folio/pkg/domain"
)

type entry struct {
	def      domain.Definition
	position int
}

// Registry manages the available dialogs.
// Registration order is kept and breaks ties when several dialogs match.
type Registry struct {
	mu      sync.RWMutex
	dialogs map[string]*entry
	order   []string
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		dialogs: make(map[string]*entry),
	}
}

// Register adds a dialog to the registry.
// The id is normalized to its absolute form. If a dialog with the same id exists,
// it is overwritten and keeps its original registration slot.
func (r *Registry) Register(def domain.Definition) error {
	if len(def.Steps) == 0 {
		return fmt.Errorf("%w: dialog %q has no steps", domain.ErrInvalidDefinition, def.ID)
	}
	for i, step := range def.Steps {
		if step == nil {
			return fmt.Errorf("%w: dialog %q step %d is nil", domain.ErrInvalidDefinition, def.ID, i)
		}
	}

	def.ID = domain.NormalizeDialogID(def.ID)
	links := make([]string, len(def.Links))
	for i, l := range def.Links {
		links[i] = domain.NormalizeDialogID(l)
	}
	def.Links = links

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.dialogs[def.ID]; ok {
		existing.def = def
		return nil
	}
	r.dialogs[def.ID] = &entry{def: def, position: len(r.order)}
	r.order = append(r.order, def.ID)
	return nil
}

// MustRegister is like Register but panics on invalid definitions.
func (r *Registry) MustRegister(defs ...domain.Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// ResolveByID returns the dialog registered under id.
func (r *Registry) ResolveByID(id string) (domain.Definition, error) {
	id = domain.NormalizeDialogID(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.dialogs[id]
	if !ok {
		return domain.Definition{}, fmt.Errorf("%w: %s", domain.ErrDialogNotFound, id)
	}
	return e.def, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, err := r.ResolveByID(id)
	return err == nil
}

// ResolveByTrigger returns the first dialog, in registration order, that lists intent
// as a trigger. Dialogs with the wildcard trigger are only considered afterwards.
func (r *Registry) ResolveByTrigger(intent string) (domain.Definition, bool) {
	m, ok := r.match(intent)
	if !ok {
		return domain.Definition{}, false
	}
	return m.Definition, true
}

// Match is a trigger resolution with its ranking keys.
type Match struct {
	Definition domain.Definition
	Position   int
	Wildcard   bool
}

func (r *Registry) match(intent string) (Match, bool) {
	if intent == "" {
		return Match{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var wildcard *entry
	for _, id := range r.order {
		e := r.dialogs[id]
		for _, trig := range e.def.Triggers {
			if trig == intent {
				return Match{Definition: e.def, Position: e.position}, true
			}
			if trig == domain.Wildcard && wildcard == nil {
				wildcard = e
			}
		}
	}
	if wildcard != nil {
		return Match{Definition: wildcard.def, Position: wildcard.position, Wildcard: true}, true
	}
	return Match{}, false
}

// Best picks the dialog to route to among recognizer matches.
// Only matches at or above minConfidence are considered. Explicit triggers beat the
// wildcard, then the highest confidence wins, then the earliest registration.
func (r *Registry) Best(matches []domain.IntentMatch, minConfidence float64) (Match, domain.IntentMatch, bool) {
	var (
		best      Match
		bestMatch domain.IntentMatch
		found     bool
	)
	for _, im := range matches {
		if im.Confidence < minConfidence {
			continue
		}
		m, ok := r.match(im.Intent)
		if !ok {
			continue
		}
		if !found || better(m, im, best, bestMatch) {
			best, bestMatch, found = m, im, true
		}
	}
	return best, bestMatch, found
}

func better(m Match, im domain.IntentMatch, best Match, bestMatch domain.IntentMatch) bool {
	if m.Wildcard != best.Wildcard {
		return !m.Wildcard
	}
	if im.Confidence != bestMatch.Confidence {
		return im.Confidence > bestMatch.Confidence
	}
	return m.Position < best.Position
}

// List returns the dialogs in registration order.
func (r *Registry) List() []domain.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.dialogs[id].def)
	}
	return defs
}

// Validate checks that every required id (typically the default and fallback
// dialogs) is registered and that every static link resolves.
func (r *Registry) Validate(required ...string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, id := range required {
		id = domain.NormalizeDialogID(id)
		if _, ok := r.dialogs[id]; !ok {
			errs = append(errs, fmt.Errorf("required dialog %s: %w", id, domain.ErrDialogNotFound))
		}
	}
	for _, id := range r.order {
		for _, link := range r.dialogs[id].def.Links {
			if _, ok := r.dialogs[link]; !ok {
				errs = append(errs, fmt.Errorf("dialog %s links to %s: %w", id, link, domain.ErrDialogNotFound))
			}
		}
	}
	return errors.Join(errs...)
}
