package main

import "github.com/nocturna-app/nocturna/internal/cli"

func main() {
	cli.Execute()
}
