package main

import "github.com/Norgate-AV/asb/cmd"

func main() {
	cmd.Execute()
}
