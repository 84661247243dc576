package main

import "github.com/jewhyena/tilepyramid/cmd"

func main() {
	cmd.Execute()
}
