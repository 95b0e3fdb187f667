package prompt

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
)

// builtinTemplates holds the default role prompts, one file per
// <backend>/<role>.md.
//
//go:embed templates
var builtinTemplates embed.FS

var rolePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Templates resolves role prompts. A file under Dir overrides the built-in
// template of the same backend and role.
type Templates struct {
	Dir string
}

// Role returns the role prompt for backend followed by a blank line, or ""
// when the role is empty, malformed or has no template.
func (t Templates) Role(backend, role string) string {
	if role == "" || !rolePattern.MatchString(role) || !rolePattern.MatchString(backend) {
		return ""
	}

	if t.Dir != "" {
		data, err := os.ReadFile(filepath.Join(t.Dir, backend, role+".md"))
		if err == nil {
			return string(data) + "\n\n"
		}
	}

	data, err := fs.ReadFile(builtinTemplates, path.Join("templates", backend, role+".md"))
	if err != nil {
		return ""
	}
	return string(data) + "\n\n"
}

// Roles lists the built-in roles for backend.
func Roles(backend string) []string {
	entries, err := fs.ReadDir(builtinTemplates, path.Join("templates", backend))
	if err != nil {
		return nil
	}
	roles := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if ext := path.Ext(name); ext == ".md" {
			roles = append(roles, name[:len(name)-len(ext)])
		}
	}
	return roles
}
