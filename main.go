package main

import "github.com/trobanga/hl7anon/cmd"

func main() {
	cmd.Execute()
}
