package wizard

import (
	"errors"
	"fmt"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
)

// ErrFieldsUnsupported is returned when field definitions are requested for
// a type without feed capability.
var ErrFieldsUnsupported = errors.New("wizard type does not define fields")

// Registry is an immutable lookup table over the wizard type catalog, built
// once at process start and passed by reference to everything that needs it.
type Registry struct {
	order []string
	byKey map[string]*Type
}

func NewRegistry(catalog ...Type) (*Registry, error) {
	r := &Registry{byKey: make(map[string]*Type, len(catalog))}
	for i := range catalog {
		t := catalog[i]
		if t.Name == "" {
			return nil, fmt.Errorf("wizard type at index %d has no name", i)
		}
		if _, exists := r.byKey[t.Name]; exists {
			return nil, fmt.Errorf("duplicate wizard type %q", t.Name)
		}
		if len(t.Steps) == 0 {
			return nil, fmt.Errorf("wizard type %q has no steps", t.Name)
		}
		seen := make(map[string]bool, len(t.Steps))
		for _, s := range t.Steps {
			if s.ID == "" || seen[s.ID] {
				return nil, fmt.Errorf("wizard type %q has empty or duplicate step id %q", t.Name, s.ID)
			}
			seen[s.ID] = true
		}
		if len(t.Statuses) == 0 {
			return nil, fmt.Errorf("wizard type %q has no statuses", t.Name)
		}
		if t.Monthly != nil && t.Monthly.Group == "" {
			return nil, fmt.Errorf("monthly wizard type %q has no group", t.Name)
		}
		r.order = append(r.order, t.Name)
		r.byKey[t.Name] = &t
	}
	return r, nil
}

func (r *Registry) Get(name string) (*Type, error) {
	t, ok := r.byKey[name]
	if !ok {
		return nil, apierr.NotFound(apierr.CodeTypeNotFound, fmt.Errorf("unknown wizard type %q", name))
	}
	return t, nil
}

func (r *Registry) All() []*Type {
	out := make([]*Type, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byKey[name])
	}
	return out
}

func (r *Registry) ValidateType(name string) error {
	_, err := r.Get(name)
	return err
}

func (r *Registry) StepsForType(name string) ([]StepDef, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Steps, nil
}

func (r *Registry) StatusesForType(name string) ([]string, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.Statuses, nil
}

func (r *Registry) FieldsForType(name string) ([]FieldDef, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if t.Feed == nil {
		return nil, ErrFieldsUnsupported
	}
	return t.Feed.Fields, nil
}

func (r *Registry) LaunchArgumentsForType(name string) ([]ArgDef, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return t.LaunchArguments, nil
}

func (r *Registry) IsMonthlyWizard(name string) bool {
	t, ok := r.byKey[name]
	return ok && t.IsMonthly()
}

// MonthlyGroupTypes returns the names of types in the given monthly group
// with the given kind, in catalog order.
func (r *Registry) MonthlyGroupTypes(group string, kind MonthlyKind) []string {
	var out []string
	for _, name := range r.order {
		t := r.byKey[name]
		if t.Monthly != nil && t.Monthly.Group == group && t.Monthly.Kind == kind {
			out = append(out, name)
		}
	}
	return out
}
