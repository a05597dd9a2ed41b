package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolchainFor_Interpreted(t *testing.T) {
	tc, err := ToolchainFor("script.py")
	require.NoError(t, err)

	assert.Equal(t, "python", tc.Name)
	assert.False(t, tc.Compiled())
	assert.Equal(t, []string{"python3", "script.py"}, tc.RunArgv("script.py"))
}

func TestToolchainFor_Compiled(t *testing.T) {
	tc, err := ToolchainFor("main.c")
	require.NoError(t, err)

	assert.Equal(t, "c", tc.Name)
	assert.True(t, tc.Compiled())
	assert.Equal(t, []string{"gcc", "-o", compiledProgram, "main.c"}, tc.CompileArgv("main.c"))
	assert.Equal(t, []string{"./" + compiledProgram}, tc.RunArgv("main.c"))
}

func TestToolchainFor_Java_RunsClassName(t *testing.T) {
	tc, err := ToolchainFor("Main.java")
	require.NoError(t, err)

	assert.Equal(t, []string{"java", "Main"}, tc.RunArgv("Main.java"))
}

func TestToolchainFor_CaseInsensitiveExtension(t *testing.T) {
	tc, err := ToolchainFor("SCRIPT.PY")
	require.NoError(t, err)
	assert.Equal(t, "python", tc.Name)
}

func TestToolchainFor_UnsupportedExtension(t *testing.T) {
	_, err := ToolchainFor("data.csv")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = ToolchainFor("noextension")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}
