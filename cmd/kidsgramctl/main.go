package main

import (
	"fmt"
	"os"

	"github.com/dmitrijs2005/kidsgram/internal/ctl"
)

func main() {
	if err := ctl.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
