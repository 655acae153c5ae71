package main

import "github.com/tejashwikalptaru/offtune/cmd"

func main() {
	cmd.Execute()
}
