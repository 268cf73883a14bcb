// Package ltm defines what it takes for a simulation entity to live in
// long-term memory, and the SQLite-backed store that persists such entities.
//
// The contract is a capability set rather than a base type. Every storable
// entity supplies BriefLabel; the other capabilities are optional interfaces
// whose defaults are applied by the package-level functions StorableContent,
// DisplayLabel and DependentContent.
package ltm

import (
	"errors"
	"fmt"
)

// ErrNotImplemented is the panic value (wrapped in *NotImplementedError)
// raised when an entity relies on Unlabeled instead of providing BriefLabel.
var ErrNotImplemented = errors.New("not implemented")

// NotImplementedError names the method an entity failed to provide.
type NotImplementedError struct {
	Method string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s should have been implemented by the storable type: %v", e.Method, ErrNotImplemented)
}

// Unwrap lets errors.Is match ErrNotImplemented.
func (e *NotImplementedError) Unwrap() error {
	return ErrNotImplemented
}

// Storable is implemented by every entity that may be stored in LTM.
type Storable interface {
	// BriefLabel returns a short human-readable label.
	BriefLabel() string
}

// ContentProvider redirects persistence to a canonical representation,
// for example a shared proxy or a normalized form of the entity.
type ContentProvider interface {
	StorableContent() Storable
}

// DisplayLabeler overrides the label used for display, which otherwise
// is the brief label.
type DisplayLabeler interface {
	DisplayLabel() string
}

// Dependent is implemented by entities whose definition requires other
// entities to exist, such as the components of a composite.
type Dependent interface {
	DependentContent() []Storable
}

// Keyed overrides the key an entity's content is stored under.
type Keyed interface {
	LTMKey() string
}

// Unlabeled can be embedded to satisfy Storable before BriefLabel is
// written. Calling its BriefLabel panics with *NotImplementedError, so a
// type that forgets to override it fails loudly the first time it is shown
// or stored.
type Unlabeled struct{}

// BriefLabel panics. Embedding types must provide their own.
func (Unlabeled) BriefLabel() string {
	panic(&NotImplementedError{Method: "BriefLabel"})
}

// StorableContent returns what should actually be persisted for s:
// s.StorableContent() when s is a ContentProvider, s itself otherwise.
func StorableContent(s Storable) Storable {
	if cp, ok := s.(ContentProvider); ok {
		if content := cp.StorableContent(); content != nil {
			return content
		}
	}
	return s
}

// DisplayLabel returns the label shown for s in displays and debug output.
// It defaults to s.BriefLabel().
func DisplayLabel(s Storable) string {
	if dl, ok := s.(DisplayLabeler); ok {
		return dl.DisplayLabel()
	}
	return s.BriefLabel()
}

// DependentContent returns the entities whose existence is necessary for
// fully defining s. The result is never nil and keeps the order s reports.
func DependentContent(s Storable) []Storable {
	d, ok := s.(Dependent)
	if !ok {
		return []Storable{}
	}
	deps := d.DependentContent()
	out := make([]Storable, 0, len(deps))
	for _, dep := range deps {
		if dep != nil {
			out = append(out, dep)
		}
	}
	return out
}

// Key returns the key the canonical content of s is stored under:
// LTMKey() when the content is Keyed, "<type>:<brief label>" otherwise.
func Key(s Storable) string {
	content := StorableContent(s)
	if k, ok := content.(Keyed); ok {
		return k.LTMKey()
	}
	return fmt.Sprintf("%s:%s", kindOf(content), content.BriefLabel())
}

// kindOf names the Go type of a stored entity, without pointer markers.
func kindOf(s Storable) string {
	kind := fmt.Sprintf("%T", s)
	for len(kind) > 0 && kind[0] == '*' {
		kind = kind[1:]
	}
	return kind
}
