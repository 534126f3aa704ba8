package main

import (
	"github.com/duelboard/duelboard/internal/cli"
)

func main() {
	cli.Execute()
}
