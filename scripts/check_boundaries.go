package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

const modulePath = "github.com/Yunusinusah/offline-voting"

// Adapters that bridge a context onto the shared platform packages.
var platformAdapters = []string{"events"}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists the layers of the same context a package may import and
// whether it may reach outside the standard library.
type layerRule struct {
	inner      []string
	thirdParty bool
}

var layerRules = map[string]layerRule{
	"domain":      {inner: []string{"domain"}},
	"ports":       {inner: []string{"domain", "ports"}},
	"application": {inner: []string{"domain", "ports", "application"}},
	"transport":   {inner: []string{"transport"}},
	"adapters":    {inner: []string{"domain", "ports", "application", "transport"}, thirdParty: true},
}

// Checks every non-test file under contexts/<context>/<service>/ against the
// layer rules. Pass a different root as the first argument.
func main() {
	root := "contexts"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	violations, err := collectViolations(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "walk %s: %v\n", root, err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		found, err := checkFile(path, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	return violations, nil
}

// checkFile applies the rules for rel, a slash path of the form
// <context>/<service>/<layer>/... relative to the contexts root.
func checkFile(path string, rel string) ([]violation, error) {
	parts := strings.Split(rel, "/")
	if len(parts) < 3 {
		return nil, nil
	}
	servicePrefix := modulePath + "/contexts/" + parts[0] + "/" + parts[1]

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: rel, Line: 1, Rule: "file must parse"}}, nil
	}

	// files at the service root wire the layers together
	layer := ""
	if len(parts) > 3 {
		layer = parts[2]
	}
	adapter := ""
	if layer == "adapters" && len(parts) > 4 {
		adapter = parts[3]
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		if rule := importRule(importPath, servicePrefix, layer, adapter); rule != "" {
			violations = append(violations, violation{
				File:   rel,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations, nil
}

// importRule returns the rule importPath breaks, or "" when it is allowed.
func importRule(importPath string, servicePrefix string, layer string, adapter string) string {
	if isStdlib(importPath) {
		return ""
	}
	if hasPrefix(importPath, modulePath+"/cmd") || hasPrefix(importPath, modulePath+"/internal/app") {
		return "contexts must not import process wiring"
	}
	if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
		return "cross-context imports are forbidden"
	}

	if layer == "" {
		if hasPrefix(importPath, modulePath+"/internal") {
			return "service wiring must not import platform packages"
		}
		return ""
	}
	rule, ok := layerRules[layer]
	if !ok {
		return ""
	}

	if hasPrefix(importPath, servicePrefix) {
		target := strings.Split(strings.TrimPrefix(importPath, servicePrefix+"/"), "/")
		if slices.Contains(rule.inner, target[0]) {
			return ""
		}
		if layer == "adapters" && target[0] == "adapters" && len(target) > 1 && target[1] == adapter {
			return ""
		}
		return fmt.Sprintf("%s must not import %s", layer, target[0])
	}

	if hasPrefix(importPath, modulePath+"/internal") {
		if layer == "adapters" && slices.Contains(platformAdapters, adapter) {
			return ""
		}
		return fmt.Sprintf("%s must not import platform packages", layer)
	}
	if !rule.thirdParty {
		return fmt.Sprintf("%s must stay on the standard library", layer)
	}
	return ""
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
