package page

import "strings"

// parseDeclarations splits an inline style attribute into property/value pairs, in order.
func parseDeclarations(style string) [][2]string {
	var out [][2]string
	for _, part := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" {
			continue
		}
		out = append(out, [2]string{prop, value})
	}
	return out
}

// setDeclaration returns style with property set to value, replacing an existing declaration in place.
func setDeclaration(style, property, value string) string {
	property = strings.ToLower(strings.TrimSpace(property))
	decls := parseDeclarations(style)
	replaced := false
	for i := range decls {
		if decls[i][0] == property {
			decls[i][1] = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, [2]string{property, value})
	}

	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d[0] + ": " + d[1]
	}
	return strings.Join(parts, "; ")
}
