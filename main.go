package main

import "github.com/Yates-Labs/cardsage/cmd"

func main() {
	cmd.Execute()
}
