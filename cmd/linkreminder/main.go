package main

import (
	"log"

	"github.com/catmanduz/link-reminder/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ link-reminder failed to start: %v", err)
	}
}
