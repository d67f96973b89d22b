package main

import "github.com/Alijeyrad/clinic_ledger/cmd"

func main() {
	cmd.Execute()
}
