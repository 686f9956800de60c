package exactode

import "strings"

// namespacePrefixes are qualifiers that users and code generators put in
// front of function names, as in math.sin(x).
var namespacePrefixes = []string{"math.", "Math."}

// Sanitize strips namespace qualifiers from function names.
func Sanitize(text string) string {
	for _, p := range namespacePrefixes {
		text = strings.ReplaceAll(text, p, "")
	}
	return text
}
