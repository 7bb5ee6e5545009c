package schemas

import (
	"fmt"
	"strings"
)

// GeneratedComponent is one synthesized UI component, prior to file placement.
type GeneratedComponent struct {
	Name         string   `json:"name"`
	Source       string   `json:"source"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies"` // Component names or external import paths.
}

// RouteHandler is the synthesized implementation of one HTTP method on a route.
type RouteHandler struct {
	Source      string `json:"source"`
	Description string `json:"description"`
}

// GeneratedRoute holds every handler synthesized for a single route path,
// keyed by upper-case HTTP method.
type GeneratedRoute struct {
	Path     string                  `json:"path"`
	Handlers map[string]RouteHandler `json:"handlers"`
}

// GeneratedPage is one synthesized page, composed from routes and components
// generated in the earlier phases.
type GeneratedPage struct {
	Path        string `json:"path"` // Route path, e.g. "/dashboard".
	Source      string `json:"source"`
	Description string `json:"description"`
}

// GeneratedArtifactSet is the complete output of one synthesis run. It is
// produced once per ProjectSpec and is never partially persisted: synthesis
// either completes for every declared entity or fails closed.
type GeneratedArtifactSet struct {
	Components []GeneratedComponent `json:"components"`
	APIRoutes  []GeneratedRoute     `json:"api_routes"`
	Pages      []GeneratedPage      `json:"pages"`
	Types      string               `json:"types"` // Shared type declarations, a single source blob.
	Utils      map[string]string    `json:"utils"` // Utility sources keyed by file name.
}

// externalDependency reports whether a component dependency name refers to a
// library import rather than another generated component. Library references
// carry a path separator or a scope prefix; bare identifiers must resolve
// within the set.
func externalDependency(name string) bool {
	return strings.ContainsAny(name, "/.") || strings.HasPrefix(name, "@")
}

// Validate checks the artifact-set invariant: every dependency name referenced
// by a component resolves to another component in the set or to an external
// library. An unresolved dependency is a generation error, not a build error.
func (a *GeneratedArtifactSet) Validate() error {
	names := make(map[string]struct{}, len(a.Components))
	for _, c := range a.Components {
		names[c.Name] = struct{}{}
	}
	for _, c := range a.Components {
		for _, dep := range c.Dependencies {
			if externalDependency(dep) {
				continue
			}
			if _, ok := names[dep]; !ok {
				return &ValidationError{
					Field:  fmt.Sprintf("components[%s].dependencies", c.Name),
					Reason: fmt.Sprintf("dependency %q does not resolve to a generated component or library", dep),
				}
			}
		}
	}
	return nil
}
