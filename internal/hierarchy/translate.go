package hierarchy

import "strings"

// Translator overlays per-language display names onto nodes. The zero value
// translates nothing and always yields the default name.
type Translator struct {
	// DefaultLanguage is the language the default names are written in.
	DefaultLanguage string
	// Aliases lists languages treated as the default, e.g. "en-gb" for "en".
	Aliases []string
	// Enabled gates translation entirely; deployments with untranslated data
	// skip the overlay.
	Enabled bool
}

// DisplayName resolves the name shown for a node in the given language. It is
// a pure function and never fails: a missing translation falls back to the
// node's default name.
func (t Translator) DisplayName(node Node, language string) string {
	if !t.Enabled || language == "" || strings.EqualFold(language, t.DefaultLanguage) {
		return node.Name
	}
	for _, alias := range t.Aliases {
		if strings.EqualFold(language, alias) {
			return node.Name
		}
	}
	if name, ok := node.Translations[language]; ok && name != "" {
		return name
	}
	return node.Name
}
