package main

import "github.com/grussorusso/offsim/internal/cli"

func main() {
	cli.Init()
}
