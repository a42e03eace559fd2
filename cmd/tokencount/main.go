// Command tokencount prints the number of tokens in a text or file.
//
//	tokencount [text-or-filepath] [model]
package main

import (
	"os"

	"github.com/HerbHall/toolshed/internal/tokencli"
)

func main() {
	os.Exit(tokencli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
