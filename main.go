package main

import "github.com/qobs-build/makemake/cmd"

func main() {
	cmd.Execute()
}
