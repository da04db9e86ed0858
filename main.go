package main

import "SECUREATTEND/cmd"

func main() {
	cmd.Execute()
}
