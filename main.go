package main

import "github.com/naka-gawa/stale-radar/cmd"

func main() {
	cmd.Execute()
}
