package restructure

import (
	"regexp"
	"strconv"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeTitle replaces every character outside [A-Za-z0-9.-] with '_'.
func SanitizeTitle(title string) string {
	return unsafeFilenameChars.ReplaceAllString(title, "_")
}

// ExpandPattern replaces each "{name}" in pattern with vars[name]. Tokens
// without a value are left as written.
func ExpandPattern(pattern string, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(pattern)
}

func indexVars(i int) map[string]string {
	return map[string]string{"index": strconv.Itoa(i)}
}
