package main

import (
	"cantonwatch/internal/cli"
)

func main() {
	cli.Execute()
}
