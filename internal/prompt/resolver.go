// Package prompt loads instruction templates and expands their placeholders.
package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Placeholder tokens replaced literally, every occurrence.
const (
	TokenSmartModel  = "{{SMART_MODEL}}"
	TokenFastModel   = "{{FAST_MODEL}}"
	TokenProjectPath = "{{PROJECT_PATH}}"
)

// currentDirSentinel substitutes the project token in global-mode operation
// so one template works in both modes.
const currentDirSentinel = "."

// ErrNoProjectScope is returned when a template uses the project-path token
// but the scoped run has no scope configured.
var ErrNoProjectScope = errors.New("prompt: template uses " + TokenProjectPath + " but no project scope is configured")

// Resolver expands named placeholders against resolved configuration values.
type Resolver struct {
	// SmartModel and FastModel substitute the model-role tokens.
	SmartModel string
	FastModel  string

	// ProjectPath substitutes the project-scope token. Empty means
	// global-mode operation.
	ProjectPath string

	// Scoped marks project-scoped operation, where an empty ProjectPath
	// is an error rather than the current-directory sentinel.
	Scoped bool
}

// Expand performs literal find/replace of every token occurrence.
func (r *Resolver) Expand(template string) (string, error) {
	out := strings.ReplaceAll(template, TokenSmartModel, r.SmartModel)
	out = strings.ReplaceAll(out, TokenFastModel, r.FastModel)

	if strings.Contains(out, TokenProjectPath) {
		path := r.ProjectPath
		if path == "" {
			if r.Scoped {
				return "", ErrNoProjectScope
			}
			path = currentDirSentinel
		}
		out = strings.ReplaceAll(out, TokenProjectPath, path)
	}

	return out, nil
}

// Load returns the instruction template for a mode. Project-scoped runs look
// under the scope directory first; a repo-level template comes next; the
// built-in template is the fallback. Every template ends by requesting the
// completion marker.
func Load(repoPath, scope, mode string) (string, error) {
	name := templateName(mode)

	candidates := []string{}
	if scope != "" {
		candidates = append(candidates, filepath.Join(repoPath, scope, ".ralph", name))
	}
	candidates = append(candidates, filepath.Join(repoPath, ".ralph", name))

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}

	return builtinTemplate(mode), nil
}

func templateName(mode string) string {
	if mode == "plan" {
		return "PROMPT_PLAN.md"
	}
	return "PROMPT_BUILD.md"
}
