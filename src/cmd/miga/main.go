package main

import (
	"github.com/misaka19683/miga/src/cmd/miga/command"
)

func main() {
	command.Execute()
}
