package pkg

import (
	"path/filepath"
	"strings"
)

var languagesByExtension = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".rb":   "ruby",
	".sh":   "shell",
	".c":    "c",
	".cpp":  "cpp",
	".go":   "go",
	".java": "java",
	".md":   "markdown",
	".txt":  "plaintext",
}

// LanguageForFilename maps a filename to its editor language tag.
// Unknown extensions fall back to plaintext; the tag is display
// metadata only and never gates what can be stored.
func LanguageForFilename(filename string) string {
	if lang, ok := languagesByExtension[strings.ToLower(filepath.Ext(filename))]; ok {
		return lang
	}
	return "plaintext"
}
