package main

import "github.com/hoppxi/ddc-brightness/internal/cmd"

func main() {
	cmd.Execute()
}
