package rbac

import (
	"slices"
	"strings"
)

const (
	scopeWildcard  = "*"
	scopeDelimiter = "."
)

// scopeCovers reports whether a dotted name lies inside a scope pattern.
// "*" covers everything, "sales" and "sales.*" cover "sales" and every "sales.x" name.
func scopeCovers(pattern, name string) bool {
	if pattern == name || pattern == scopeWildcard {
		return true
	}
	prefix := strings.TrimSuffix(pattern, scopeWildcard)
	prefix = strings.TrimSuffix(prefix, scopeDelimiter)
	if prefix == "" {
		return false
	}
	return name == prefix || strings.HasPrefix(name, prefix+scopeDelimiter)
}

// normalizeRoles removes duplicates and empty names and sorts the result.
func normalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != "" {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// intersects reports whether both sorted sets share an element.
func intersects(a, b []string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// CoversType reports whether a scope pattern ("*", "sales", "sales.*")
// covers a type name.
func CoversType(pattern, typeName string) bool {
	return scopeCovers(pattern, typeName)
}
