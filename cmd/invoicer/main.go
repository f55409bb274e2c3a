package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/invoicer/internal/cli"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
