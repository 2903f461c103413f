package main

import "atlaswatch/internal/cli"

func main() {
	cli.Execute()
}
