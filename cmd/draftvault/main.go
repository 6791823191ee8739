package main

import "draftvault/cmd/draftvault/cmd"

func main() {
	cmd.Execute()
}
