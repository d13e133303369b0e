package main

import "github.com/korjavin/gkentei/cmd"

func main() {
	cmd.Execute()
}
