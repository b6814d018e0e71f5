// morphnet - community structure of inflectional morphology.
//
// morphnet turns paradigm tables of inflected lexemes into bipartite
// lexeme-exponent graphs, detects communities across a resolution sweep and
// measures how communities nest from coarse to fine resolutions.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/morphnet/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
