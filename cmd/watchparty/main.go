package main

import "github.com/skye-hx/watchparty/cmd/watchparty/cmd"

func main() {
	cmd.Execute()
}
