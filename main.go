package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/lockbox/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Println(msg)
		}
		os.Exit(1)
	}
}
