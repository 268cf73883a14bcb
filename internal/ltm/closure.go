package ltm

// Closure returns s and everything it transitively depends on, each keyed
// entity once, ordered so that dependencies come before their dependents.
// Dependencies are resolved on canonical content. Cycles are cut at the
// first revisit.
func Closure(s Storable) []Storable {
	var out []Storable
	visited := make(map[string]bool)
	var visit func(Storable)
	visit = func(item Storable) {
		content := StorableContent(item)
		key := Key(content)
		if visited[key] {
			return
		}
		visited[key] = true
		for _, dep := range DependentContent(content) {
			visit(dep)
		}
		out = append(out, content)
	}
	visit(s)
	return out
}
