package main

import "github.com/tillpoint-pos/tillpoint/internal/cli"

func main() {
	cli.Execute()
}
