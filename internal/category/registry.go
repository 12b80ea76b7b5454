// Package category models task categories as an open set: four built-in
// defaults plus user-defined entries persisted in storage. Validation happens
// against the registry, never against a closed enum, so categories suggested
// by the model can be promoted to real ones.
package category

// Category is one selectable task category.
type Category struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Builtin bool   `json:"builtin"`
}

// Defaults are the categories every warrior starts with.
var Defaults = []Category{
	{ID: "work", Name: "عمل", Builtin: true},
	{ID: "study", Name: "دراسة", Builtin: true},
	{ID: "health", Name: "صحة", Builtin: true},
	{ID: "personal", Name: "شخصي", Builtin: true},
}

// Lister supplies the user-defined category IDs from storage.
type Lister interface {
	ListCategoryIDs(userID string) ([]string, error)
}

// Registry resolves the full category set for a user.
type Registry struct {
	store Lister
}

// NewRegistry creates a Registry backed by the given store. A nil store
// yields a registry over the defaults only.
func NewRegistry(store Lister) *Registry {
	return &Registry{store: store}
}

// Known returns all category IDs available to the user: defaults first, then
// custom entries in storage order.
func (r *Registry) Known(userID string) ([]string, error) {
	ids := make([]string, 0, len(Defaults))
	seen := make(map[string]bool, len(Defaults))
	for _, c := range Defaults {
		ids = append(ids, c.ID)
		seen[c.ID] = true
	}

	if r.store == nil {
		return ids, nil
	}
	custom, err := r.store.ListCategoryIDs(userID)
	if err != nil {
		return nil, err
	}
	for _, id := range custom {
		if !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	return ids, nil
}

// Valid reports whether id is a known category for the user.
func (r *Registry) Valid(userID, id string) (bool, error) {
	ids, err := r.Known(userID)
	if err != nil {
		return false, err
	}
	for _, k := range ids {
		if k == id {
			return true, nil
		}
	}
	return false, nil
}

// IsBuiltin reports whether id is one of the default categories.
func IsBuiltin(id string) bool {
	for _, c := range Defaults {
		if c.ID == id {
			return true
		}
	}
	return false
}
