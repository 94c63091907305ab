// Command drill runs scale-degree drills in the terminal without a server.
//
// Usage:
//
//	drill practice [--roots C,G] [--modes major] [--degrees 1,3,5] [--count 10] [--seed 42]
//	drill resolve <degree> <root> <mode>
//	drill check <answer> <expected>
//	drill options
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
