// # cmd/codequery/main.go
package main

import (
	"os"

	"codequery/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
