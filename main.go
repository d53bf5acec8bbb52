package main

import (
	"fmt"
	"os"

	"facegate.io/infrastructure"
)

func main() {
	if err := infrastructure.StartServer(); err != nil {
		fmt.Fprintf(os.Stderr, "facegate: %v\n", err)
		os.Exit(1)
	}
}
