package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageForFilename(t *testing.T) {
	assert.Equal(t, "python", LanguageForFilename("main.py"))
	assert.Equal(t, "javascript", LanguageForFilename("app.js"))
	assert.Equal(t, "go", LanguageForFilename("server.go"))
	assert.Equal(t, "cpp", LanguageForFilename("solver.cpp"))
	assert.Equal(t, "java", LanguageForFilename("Main.java"))
}

func TestLanguageForFilename_CaseInsensitive(t *testing.T) {
	assert.Equal(t, "python", LanguageForFilename("MAIN.PY"))
}

func TestLanguageForFilename_Fallback(t *testing.T) {
	assert.Equal(t, "plaintext", LanguageForFilename("notes"))
	assert.Equal(t, "plaintext", LanguageForFilename("data.unknown"))
}
