// electionctl is a thin flag-driven wrapper around adminctl's REPL.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/quorumforge/elections/adminctl"
)

func main() {
	flagset := flag.NewFlagSet("client", flag.ExitOnError)
	address := flagset.String("address", "localhost:12345", "address of the election node's admin RPC endpoint")
	if err := flagset.Parse(os.Args[1:]); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	if err := adminctl.RunCLI(*address); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}
