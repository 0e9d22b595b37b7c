package main

import "github.com/snapscan/snapscan/cmd/snapscan/cmd"

func main() {
	cmd.Execute()
}
