package main

import "github.com/volcano-authors/vbuild/cmd"

func main() {
	cmd.Execute()
}
