// Command nosetenv runs the nosetenv analyzer, standalone or as a vet tool:
//
//	go vet -vettool=$(which nosetenv) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/cafoot/client/tools/linters"
)

func main() {
	singlechecker.Main(linters.Analyzer)
}
