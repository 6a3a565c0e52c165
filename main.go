package main

import "logreader/cmd"

func main() {
	cmd.Execute()
}
