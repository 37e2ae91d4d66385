package main

import "github.com/funvibe/tlua/pkg/cli"

func main() {
	cli.Run()
}
