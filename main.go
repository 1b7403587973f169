package main

import "github.com/lepinkainen/steamfetch/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
