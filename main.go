package main

import "github.com/Norgate-AV/spvc/cmd"

func main() {
	cmd.Execute()
}
