package main

import (
	"courtbook/cmd"
)

func main() {
	cmd.Execute()
}
