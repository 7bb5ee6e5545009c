package schemas

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Intent is the structured extraction of a user's natural-language request.
// It is produced once by the intent extractor and consumed only by the spec
// compiler; it is never mutated after creation.
type Intent struct {
	Name         string          `json:"name"`         // Short application name.
	Purpose      string          `json:"purpose"`      // One-line statement of what the app does.
	UserRoles    []string        `json:"user_roles"`   // Distinct user types, in priority order.
	Features     []Feature       `json:"features"`     // Core features, in priority order.
	Entities     []DataEntity    `json:"entities"`     // Data entities the app must store.
	Auth         AuthRequirement `json:"auth"`         // Authentication boundaries.
	Integrations []string        `json:"integrations"` // External systems to connect with.
	Constraints  []string        `json:"constraints"`  // Technical limitations affecting implementation.
}

// Feature is a single discrete capability extracted from the user's request.
type Feature struct {
	Name       string `json:"name"`
	Priority   string `json:"priority"`   // Critical, High or Medium.
	Complexity string `json:"complexity"` // Simple, Moderate or Complex.
}

// DataEntity names a stored entity and its essential attributes.
type DataEntity struct {
	Name       string   `json:"name"`
	Attributes []string `json:"attributes"`
}

// AuthRequirement captures whether and how users authenticate.
type AuthRequirement struct {
	Required  bool     `json:"required"`
	Providers []string `json:"providers,omitempty"` // e.g. "email", "google".
}

// ProjectSpec is the validated, durable blueprint of an application. It is
// written by the spec compiler as a JSON document and read back by the code
// synthesizer, the repair stage and the database setup agent without
// re-invoking any model.
type ProjectSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
	Pages       []Page      `json:"pages"`
	Components  []Component `json:"components"`
	APIRoutes   []APIRoute  `json:"api_routes"`
	Database    []Table     `json:"database"`
}

// Page describes one application route and the entities it composes.
type Page struct {
	Path        string   `json:"path"`        // Route path, e.g. "/dashboard".
	Description string   `json:"description"` // What this page does.
	APIRoutes   []string `json:"api_routes"`  // Paths of the API routes this page calls.
	Components  []string `json:"components"`  // Names of the components rendered on this page.
}

// Component describes one reusable UI component.
type Component struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsClient    bool   `json:"is_client"` // True if the component is client-rendered.
}

// APIRoute describes one HTTP endpoint the generated app exposes.
type APIRoute struct {
	Path        string `json:"path"`   // e.g. "/api/todos" or "/api/tasks/{taskId}".
	Method      string `json:"method"` // GET, POST, PUT or DELETE.
	Description string `json:"description"`
	Query       string `json:"query,omitempty"` // Database query or operation descriptor.
}

// Table describes one database table of the generated app.
type Table struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`           // SQL create statement including types and relationships.
	Policy string `json:"policy,omitempty"` // Row level security policy definition.
}

// Validate checks the structural invariants of a ProjectSpec: every component
// and API route referenced by a page must exist in the corresponding top-level
// list, and every route path must be unique per method. A violation is
// reported as a *ValidationError naming the offending field path.
func (s *ProjectSpec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Reason: "project name must not be empty"}
	}

	components := make(map[string]struct{}, len(s.Components))
	for i, c := range s.Components {
		if strings.TrimSpace(c.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("components[%d].name", i), Reason: "component name must not be empty"}
		}
		components[c.Name] = struct{}{}
	}

	routes := make(map[string]struct{}, len(s.APIRoutes))
	routePaths := make(map[string]struct{}, len(s.APIRoutes))
	for i, r := range s.APIRoutes {
		if strings.TrimSpace(r.Path) == "" {
			return &ValidationError{Field: fmt.Sprintf("api_routes[%d].path", i), Reason: "route path must not be empty"}
		}
		method := strings.ToUpper(r.Method)
		switch method {
		case "GET", "POST", "PUT", "PATCH", "DELETE":
		default:
			return &ValidationError{
				Field:  fmt.Sprintf("api_routes[%d].method", i),
				Reason: fmt.Sprintf("unsupported HTTP method %q", r.Method),
			}
		}
		key := method + " " + r.Path
		if _, dup := routes[key]; dup {
			return &ValidationError{
				Field:  fmt.Sprintf("api_routes[%d]", i),
				Reason: fmt.Sprintf("duplicate route %s", key),
			}
		}
		routes[key] = struct{}{}
		routePaths[r.Path] = struct{}{}
	}

	for i, p := range s.Pages {
		for _, name := range p.Components {
			if _, ok := components[name]; !ok {
				return &ValidationError{
					Field:  fmt.Sprintf("pages[%d].components", i),
					Reason: fmt.Sprintf("page %s references unknown component %q", p.Path, name),
				}
			}
		}
		for _, path := range p.APIRoutes {
			if _, ok := routePaths[path]; !ok {
				return &ValidationError{
					Field:  fmt.Sprintf("pages[%d].api_routes", i),
					Reason: fmt.Sprintf("page %s references unknown API route %q", p.Path, path),
				}
			}
		}
	}
	return nil
}

// ParseProjectSpec decodes and validates a ProjectSpec from its durable JSON
// form. It fails closed: a document that does not satisfy Validate is never
// returned partially populated.
func ParseProjectSpec(data []byte) (*ProjectSpec, error) {
	var spec ProjectSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, &ValidationError{Field: "(document)", Reason: err.Error()}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}
