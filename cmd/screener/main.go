package main

import (
	"os"

	"screener/internal/screenerctl"
)

func main() {
	os.Exit(screenerctl.Execute(os.Args[1:]))
}
