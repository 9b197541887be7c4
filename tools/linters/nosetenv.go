// Package linters holds repository specific static checks.
package linters

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

const doc = `nosetenv: forbid mutating the process environment in test files

Tests build their configuration with testutil.Setup(t) and hand a modified
copy to constructors. os.Setenv, os.Unsetenv, os.Clearenv and the Setenv
method of testing.T, testing.B and testing.F change global state shared by
parallel tests and are reported.`

// Analyzer reports environment mutation in _test.go files.
var Analyzer = &analysis.Analyzer{
	Name: "nosetenv",
	Doc:  doc,
	Run:  run,
}

var forbiddenOS = map[string]bool{
	"Setenv":   true,
	"Unsetenv": true,
	"Clearenv": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		name := pass.Fset.Position(file.Package).Filename
		if !strings.HasSuffix(name, "_test.go") {
			continue
		}
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
			if !ok || fn.Pkg() == nil {
				return true
			}
			switch {
			case fn.Pkg().Path() == "os" && forbiddenOS[fn.Name()]:
				pass.Reportf(call.Pos(), "os.%s is forbidden in tests; pass a modified testutil.Setup(t) config instead", fn.Name())
			case fn.Pkg().Path() == "testing" && fn.Name() == "Setenv":
				pass.Reportf(call.Pos(), "Setenv is forbidden in tests; pass a modified testutil.Setup(t) config instead")
			}
			return true
		})
	}
	return nil, nil
}
