// Command switchstr-vet checks switchstr sites. Run it as a vet tool:
//
//	go vet -tags switchstr -vettool=$(which switchstr-vet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/chazu/switchstr/vet"
)

func main() {
	singlechecker.Main(vet.Analyzer)
}
