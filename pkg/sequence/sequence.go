// Package sequence allocates human-readable document numbers such as
// IT-000123. Numbers are derived from the most recent existing value, so the
// store itself stays the single source of truth.
package sequence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var digits = regexp.MustCompile(`\d+`)

const padWidth = 6

// Next returns the successor of latest under the given prefix. The numeric
// suffix is whatever digits follow the prefix (matched case-insensitively);
// an empty or unparsable latest value counts as 0.
func Next(prefix, latest string) string {
	last := 0
	if latest != "" {
		rest := latest
		if strings.HasPrefix(strings.ToLower(latest), strings.ToLower(prefix)) {
			rest = latest[len(prefix):]
		}
		if m := digits.FindString(rest); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				last = n
			}
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, padWidth, last+1)
}
