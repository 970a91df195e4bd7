package main

import "github.com/MeKo-Tech/golfocr/cmd/golfocr/cmd"

func main() {
	cmd.Execute()
}
