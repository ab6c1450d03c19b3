package main

import (
	"github.com/vigilo-project/vigilo/cmd"
)

func main() {
	cmd.Execute()
}
