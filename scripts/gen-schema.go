//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/methopipe/pkg/compiled"
)

func main() {
	data, err := compiled.GenerateJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/methodology_compiled.schema.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/methodology_compiled.schema.json")
}
