package main

import "github.com/streamhist/streamhist/cmd"

func main() {
	cmd.Execute()
}
