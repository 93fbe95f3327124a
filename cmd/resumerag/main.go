package main

import (
	"github.com/joho/godotenv"

	"resumerag/internal/cli"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	cli.Execute()
}
