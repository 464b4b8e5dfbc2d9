package main

import "github.com/veritak-io/azpim/cmd"

func main() {
	cmd.Execute()
}
