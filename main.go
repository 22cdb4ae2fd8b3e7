package main

import "github.com/mjschmitt/sheetview/cmd"

func main() {
	cmd.Execute()
}
