package main

import "github.com/joshhighet/r7/cmd"

func main() {
	cmd.Execute()
}
