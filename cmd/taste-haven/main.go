package main

import "taste-haven-assistant/internal/cli"

func main() {
	cli.Execute()
}
