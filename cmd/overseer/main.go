package main

import "github.com/mvp-joe/overseer/internal/cli"

func main() {
	cli.Execute()
}
