package main

import "github.com/bryanchriswhite/ScreenGrab/cmd/screengrab/commands"

func main() {
	commands.Execute()
}
