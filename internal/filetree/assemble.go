package filetree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lumiralabs/berry/api/schemas"
)

// Placement conventions for the target project layout.
const (
	componentsDir = "components"
	appDir        = "app"
	routeFileName = "route.ts"
	pageFileName  = "page.tsx"
	typesFilePath = "lib/types.ts"
	utilsDir      = "lib/utils"
)

// methodOrder fixes the concatenation order of route handlers inside one
// route file so assembly output is stable across runs.
var methodOrder = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// RewritePath converts brace-delimited dynamic segments to the
// bracket-delimited convention of the target routing layer:
// "tasks/{taskId}" becomes "tasks/[taskId]". The rewrite is idempotent and
// touches no other part of the path. A segment with unbalanced braces is an
// error.
func RewritePath(path string) (string, error) {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		hasOpen := strings.Contains(seg, "{")
		hasClose := strings.Contains(seg, "}")
		switch {
		case hasOpen && hasClose:
			if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
				return "", fmt.Errorf("malformed dynamic segment %q", seg)
			}
			segs[i] = "[" + seg[1:len(seg)-1] + "]"
		case hasOpen != hasClose:
			return "", fmt.Errorf("unbalanced braces in segment %q", seg)
		}
	}
	return strings.Join(segs, "/"), nil
}

// Assemble places a complete artifact set onto a copy of the scaffold tree
// and returns the combined tree. It is a pure function: identical inputs
// always produce an identical tree, and neither input is mutated. Generated
// files replace scaffold files at the same path wholesale (the template's
// placeholder pages and lib files are meant to be superseded); an
// *AssemblyError is reserved for genuine conflicts — two artifacts in the
// set claiming one path, a file blocking a directory segment, or an
// unresolvable segment rewrite.
func Assemble(artifacts *schemas.GeneratedArtifactSet, scaffold *Node) (*Node, error) {
	var tree *Node
	if scaffold != nil {
		tree = scaffold.Clone()
	} else {
		tree = NewDir()
	}
	placed := make(map[string]struct{})

	for _, c := range artifacts.Components {
		path := componentsDir + "/" + c.Name + ".tsx"
		if err := place(tree, placed, path, c.Source); err != nil {
			return nil, err
		}
	}

	for _, r := range artifacts.APIRoutes {
		rewritten, err := RewritePath(r.Path)
		if err != nil {
			return nil, &schemas.AssemblyError{Path: r.Path, Reason: err.Error()}
		}
		path := appDir + "/" + strings.Trim(rewritten, "/") + "/" + routeFileName
		if err := place(tree, placed, path, concatHandlers(r)); err != nil {
			return nil, err
		}
	}

	for _, p := range artifacts.Pages {
		rewritten, err := RewritePath(p.Path)
		if err != nil {
			return nil, &schemas.AssemblyError{Path: p.Path, Reason: err.Error()}
		}
		dir := strings.Trim(rewritten, "/")
		path := appDir + "/" + pageFileName
		if dir != "" {
			path = appDir + "/" + dir + "/" + pageFileName
		}
		if err := place(tree, placed, path, p.Source); err != nil {
			return nil, err
		}
	}

	if artifacts.Types != "" {
		if err := place(tree, placed, typesFilePath, artifacts.Types); err != nil {
			return nil, err
		}
	}

	utilNames := make([]string, 0, len(artifacts.Utils))
	for name := range artifacts.Utils {
		utilNames = append(utilNames, name)
	}
	sort.Strings(utilNames)
	for _, name := range utilNames {
		path := utilsDir + "/" + name
		if err := place(tree, placed, path, artifacts.Utils[name]); err != nil {
			return nil, err
		}
	}

	return tree, nil
}

// place writes one generated file into the tree. Scaffold files at the same
// path are replaced; a path already claimed by this artifact set, or one
// structurally blocked in the tree, is an assembly conflict.
func place(tree *Node, placed map[string]struct{}, path, content string) error {
	if _, dup := placed[path]; dup {
		return &schemas.AssemblyError{Path: path, Reason: "two generated artifacts claim this path"}
	}
	if err := tree.WriteFile(path, content); err != nil {
		return &schemas.AssemblyError{Path: path, Reason: err.Error()}
	}
	placed[path] = struct{}{}
	return nil
}

// concatHandlers joins the route's method handlers into one file body, one
// exported handler per method, in fixed method order.
func concatHandlers(r schemas.GeneratedRoute) string {
	var parts []string
	for _, method := range methodOrder {
		if h, ok := r.Handlers[method]; ok {
			parts = append(parts, strings.TrimRight(h.Source, "\n"))
		}
	}
	return strings.Join(parts, "\n\n") + "\n"
}
