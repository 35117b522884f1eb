package main

import "github.com/dgallion1/pdfsplice/internal/cli"

func main() {
	cli.Execute()
}
