package deps

import (
	"strings"

	"github.com/panbanda/triage/pkg/models"
)

// rangeOperators are stripped from the front of versions, longest first.
var rangeOperators = []string{"===", "==", "~=", ">=", "<=", "!=", "^", "~", ">", "<", "="}

// NormalizeVersion strips leading range operators and whitespace. Only the
// first constraint of a comma-separated list is kept. Empty, "*" and
// "latest" become models.AnyVersion.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, ",|"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	for stripped := true; stripped; {
		stripped = false
		for _, op := range rangeOperators {
			if strings.HasPrefix(v, op) {
				v = strings.TrimSpace(strings.TrimPrefix(v, op))
				stripped = true
				break
			}
		}
	}
	v = strings.Trim(v, `"'`)
	if v == "" || v == "*" || strings.EqualFold(v, "latest") {
		return models.AnyVersion
	}
	return v
}
