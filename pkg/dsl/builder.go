package dsl

import (
	"fmt"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/registry"
)

// Builder collects dialogs in declaration order.
type Builder struct {
	order   []string
	dialogs map[string]*DialogBuilder
}

// New creates a new dialog set builder.
func New() *Builder {
	return &Builder{
		dialogs: make(map[string]*DialogBuilder),
	}
}

// Add creates a new dialog in the set.
// If the dialog already exists, it returns the existing builder.
func (b *Builder) Add(id string) *DialogBuilder {
	id = domain.NormalizeDialogID(id)
	if db, ok := b.dialogs[id]; ok {
		return db
	}
	db := Dialog(id)
	b.dialogs[id] = db
	b.order = append(b.order, id)
	return db
}

// Definitions builds every dialog in declaration order.
func (b *Builder) Definitions() ([]domain.Definition, error) {
	defs := make([]domain.Definition, 0, len(b.order))
	for _, id := range b.order {
		def, err := b.dialogs[id].Build()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Build compiles the set into a registry and checks that every link resolves.
func (b *Builder) Build() (*registry.Registry, error) {
	defs, err := b.Definitions()
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build dialog set: %w", err)
	}
	return reg, nil
}
