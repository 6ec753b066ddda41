package extract

import (
	"go/token"

	"github.com/broady/ctrlgen/graph"
)

// Role is a capability a class is tagged with.
type Role string

// RoleController marks a class whose methods are HTTP actions.
const RoleController Role = "controller"

// Roles tags every class declared in mod, once. A class is a controller when
// it declares a controller fact, or when its embedding ancestry reaches base.
// Generic, unexported and ignored classes are never tagged; they can still be
// intermediate bases.
func Roles(mod graph.Module, base graph.TypeName) map[graph.TypeName]Role {
	roles := make(map[graph.TypeName]Role)
	for _, c := range mod.Classes() {
		if c.Generic || !token.IsExported(c.Name.Name) || hasFact(c.Facts, graph.FactIgnore) {
			continue
		}
		if hasFact(c.Facts, graph.FactController) || inherits(mod, c, base, map[graph.TypeName]bool{}) {
			roles[c.Name] = RoleController
		}
	}
	return roles
}

// inherits walks the embedded base types of c depth first, in declaration
// order, looking for base by identity.
func inherits(mod graph.Module, c *graph.Class, base graph.TypeName, seen map[graph.TypeName]bool) bool {
	if seen[c.Name] {
		return false
	}
	seen[c.Name] = true
	for _, b := range c.Bases {
		if b == base {
			return true
		}
		next, ok := mod.Lookup(b.String())
		if ok && inherits(mod, next, base, seen) {
			return true
		}
	}
	return false
}
