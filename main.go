// Idiomatic entrypoint for the Cobra CLI; delegates to the root command in
// cmd/coreset-cli/root.go.
package main

import (
	cli "github.com/streamcoreset/coreset/cmd/coreset-cli"
)

func main() {
	cli.Execute()
}
