package main

import "github.com/mselser95/chainhawk/cmd"

func main() {
	cmd.Execute()
}
