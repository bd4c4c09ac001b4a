package main

import "github.com/pratik-anurag/porter/internal/cli"

func main() {
	cli.Execute()
}
