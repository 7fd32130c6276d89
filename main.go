package main

import "github.com/TanmayAgarwal123/Problem-Solving-Projects/cmd"

func main() {
	cmd.Execute()
}
