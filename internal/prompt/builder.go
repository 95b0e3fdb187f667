// Package prompt assembles the text sent to a model CLI on stdin: a role
// template, the caller's inline prompt and the contents of context files.
package prompt

import (
	"os"
	"path/filepath"
	"strings"
)

// MaxContextFileSize is the largest context file that is inlined. Larger
// files are skipped without error.
const MaxContextFileSize = 5 * 1024 * 1024

// Request describes one prompt to assemble.
type Request struct {
	Backend string
	Role    string
	Prompt  string
	Files   []string

	// WorkDir resolves relative entries in Files.
	WorkDir string
}

// Build returns role template + prompt + context section. Unreadable and
// oversized files are skipped.
func (t Templates) Build(req Request) string {
	var b strings.Builder
	b.WriteString(t.Role(req.Backend, req.Role))
	b.WriteString(req.Prompt)
	b.WriteString(ContextSection(req.Files, req.WorkDir))
	return b.String()
}

// ContextSection renders files as "\n--- path ---\ncontent\n" blocks under a
// "Context:" heading. It returns "" when no file could be read.
func ContextSection(files []string, workDir string) string {
	var b strings.Builder
	for _, f := range files {
		p := f
		if workDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(workDir, p)
		}

		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Size() > MaxContextFileSize {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		b.WriteString("\n--- ")
		b.WriteString(f)
		b.WriteString(" ---\n")
		b.Write(data)
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return ""
	}
	return "\n\nContext:\n" + b.String()
}
