package main

import "kunena-discord/command"

func main() {
	command.Execute()
}
