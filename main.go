package main

import (
	_ "time/tzdata"

	"nabi/cmd"
)

func main() {
	cmd.Execute()
}
