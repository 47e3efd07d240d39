package main

import (
	"os"

	"github.com/applymate/applymate/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
