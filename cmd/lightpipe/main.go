package main

import "github.com/aiproductguy/lightpipe/internal/cli"

func main() {
	cli.Execute()
}
