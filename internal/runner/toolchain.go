package runner

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// compiledProgram is the name of the binary produced by compile-then-run
// toolchains inside the job workspace.
const compiledProgram = "program"

// Toolchain describes how to turn one source file into a running
// process. CompileArgv is nil for interpreted languages. Both argv
// funcs take the source filename relative to the job workspace, which
// is also the working directory of every spawned process.
type Toolchain struct {
	Name        string
	CompileArgv func(source string) []string
	RunArgv     func(source string) []string
}

// Compiled reports whether the toolchain has a separate compile phase.
func (t Toolchain) Compiled() bool {
	return t.CompileArgv != nil
}

var toolchains = map[string]Toolchain{
	".py": {
		Name:    "python",
		RunArgv: func(source string) []string { return []string{"python3", source} },
	},
	".js": {
		Name:    "node",
		RunArgv: func(source string) []string { return []string{"node", source} },
	},
	".rb": {
		Name:    "ruby",
		RunArgv: func(source string) []string { return []string{"ruby", source} },
	},
	".sh": {
		Name:    "shell",
		RunArgv: func(source string) []string { return []string{"sh", source} },
	},
	".c": {
		Name:        "c",
		CompileArgv: func(source string) []string { return []string{"gcc", "-o", compiledProgram, source} },
		RunArgv:     func(source string) []string { return []string{"./" + compiledProgram} },
	},
	".cpp": {
		Name:        "cpp",
		CompileArgv: func(source string) []string { return []string{"g++", "-o", compiledProgram, source} },
		RunArgv:     func(source string) []string { return []string{"./" + compiledProgram} },
	},
	".go": {
		Name:        "go",
		CompileArgv: func(source string) []string { return []string{"go", "build", "-o", compiledProgram, source} },
		RunArgv:     func(source string) []string { return []string{"./" + compiledProgram} },
	},
	".java": {
		Name:        "java",
		CompileArgv: func(source string) []string { return []string{"javac", source} },
		RunArgv: func(source string) []string {
			class := strings.TrimSuffix(filepath.Base(source), ".java")
			return []string{"java", class}
		},
	},
}

// ToolchainFor selects the toolchain from the file extension. An
// unknown extension is rejected before any process is spawned.
func ToolchainFor(filename string) (Toolchain, error) {
	tc, ok := toolchains[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return Toolchain{}, ErrUnsupportedLanguage
	}
	return tc, nil
}
