package main

import "github.com/mwasalski/financial-app/cmd"

func main() {
	cmd.Execute()
}
