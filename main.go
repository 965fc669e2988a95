package main

import (
	"os"

	"github.com/mzhao129/facility-notifier/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
