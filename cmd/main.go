package main

import cmd "github.com/kerbaras/mangashelf/cmd/mangashelf"

func main() {
	cmd.Execute()
}
