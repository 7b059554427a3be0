package main

import "github.com/vrcbridge/vrcbridge/cmd/vrcbridge/cmd"

func main() {
	cmd.Execute()
}
