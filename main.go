package main

import "github.com/Alijeyrad/simorq_scheduler/cmd"

func main() {
	cmd.Execute()
}
