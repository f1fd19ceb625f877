package transport

import "strings"

// defaultScopeSuffix is the OAuth2 client-credentials default scope
// suffix appended to bare resource URIs.
const defaultScopeSuffix = "/.default"

// NormalizeScope converts a resource URI into its client-credentials
// default scope: trim whitespace, strip trailing slashes, and append
// /.default unless the resource already carries it.
func NormalizeScope(resource string) string {
	s := strings.TrimRight(strings.TrimSpace(resource), "/")
	if s == "" {
		return s
	}

	if strings.HasSuffix(s, defaultScopeSuffix) {
		return s
	}

	return s + defaultScopeSuffix
}
