package cache

import "strings"

// Known namespace families. A family groups entries with the same
// retrieval profile; the generation tag versions them across deployments.
const (
	FamilyStatic = "static"
	FamilyPages  = "pages"
)

// Namespace identifies a versioned partition of the cache store,
// rendered as "<family>-<generation>" (e.g. "static-v1").
type Namespace struct {
	// Family is the stable logical name (e.g. "static").
	Family string

	// Generation is the deployment version tag (e.g. "v1").
	Generation string
}

// String renders the namespace in its persisted form.
func (n Namespace) String() string {
	return n.Family + "-" + n.Generation
}

// ParseNamespace splits a persisted namespace name into family and
// generation. The generation is everything after the last dash, so
// families themselves may contain dashes. Returns false if the name
// has no generation part.
func ParseNamespace(name string) (Namespace, bool) {
	i := strings.LastIndex(name, "-")
	if i <= 0 || i == len(name)-1 {
		return Namespace{}, false
	}
	return Namespace{
		Family:     name[:i],
		Generation: name[i+1:],
	}, true
}

// KnownFamily reports whether the family is one managed by the
// lifecycle controller. Only namespaces of known families are subject
// to stale-generation garbage collection.
func KnownFamily(family string) bool {
	return family == FamilyStatic || family == FamilyPages
}
