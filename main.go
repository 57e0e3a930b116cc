package main

import "github.com/matdaan/vicore/cmd/vicore"

func main() {
	vicore.Execute()
}
