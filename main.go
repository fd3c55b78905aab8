package main

import "slidecraft/cmd"

func main() {
	cmd.Execute()
}
