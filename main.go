// ./main.go
package main

import (
	"github.com/xkilldash9x/lodestar/cmd"
)

// main is the entry point for the lodestar CLI.
func main() {
	cmd.Execute()
}
