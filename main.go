package main

import "orbench/cmd"

func main() {
	cmd.Execute()
}
