// cmd/clausecheck/main.go
package main

import (
	cmd "github.com/tfletch/clausecheck/internal/cli"
)

// main starts the clausecheck CLI application by delegating to the cobra
// root command. It does not take any arguments and does not return a value.
func main() {
	cmd.Execute()
}
