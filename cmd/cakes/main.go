// Command cakes builds metric trees and answers exact k-NN queries.
package main

import "github.com/hupe1980/cakes/internal/cli"

func main() {
	cli.Execute()
}
