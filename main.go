package main

import "github.com/Rorical/LawAgent/cmd"

func main() {
	cmd.Execute()
}
