package main

import (
	"os"

	"github.com/brainpal/brainpal-backend/backendservice"
)

func main() {
	if err := backendservice.Run(); err != nil {
		os.Exit(1)
	}
}
