package main

import "matchfeatures/internal/cli"

func main() {
	cli.Execute()
}
