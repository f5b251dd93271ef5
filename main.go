package main

import "github.com/fakeyudi/fixexif/cmd"

func main() {
	cmd.Execute()
}
