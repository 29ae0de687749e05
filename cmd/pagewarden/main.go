package main

import "github.com/ppiankov/pagewarden/internal/cli"

func main() {
	cli.Execute()
}
