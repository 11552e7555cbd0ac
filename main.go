package main

import "guide-builder/cmd"

func main() {
	cmd.Execute()
}
