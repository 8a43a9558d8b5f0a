// file: main.go
// version: 2.0.0
// guid: 2f8c6e14-9a3b-4d70-b1e5-7c0d4a9f3e62

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/speed-reader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
