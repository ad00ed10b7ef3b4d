package main

import "github.com/iamasky/tx-observer/internal/cli"

func main() {
	cli.Execute()
}
