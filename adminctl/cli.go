// Package adminctl is a REPL for operating a running election node
// remotely: a Scanf-driven command loop aimed at the coordinator's
// admin RPCs.
package adminctl

import (
	"fmt"
	"net/rpc"
	"strings"

	"github.com/fatih/color"
	"github.com/quorumforge/elections/election"
	"github.com/quorumforge/elections/transport"
)

// RunCLI connects to the admin RPC endpoint at address and starts an
// interactive command loop. Available commands: STATUS, START, RESIGN,
// PRIORITY <n>, QUIT.
func RunCLI(address string) error {
	client, err := rpc.Dial("tcp", address)
	if err != nil {
		return err
	}
	defer client.Close()

	bold := color.New(color.Bold)
	bold.Println("<<<< Election Admin Console >>>>")
	fmt.Println("Available commands:")
	fmt.Println("\t STATUS")
	fmt.Println("\t START")
	fmt.Println("\t RESIGN")
	fmt.Println("\t PRIORITY <n>")
	fmt.Println("\t QUIT")
	fmt.Println()

	for {
		fmt.Print("$ ")
		var command string
		if _, err := fmt.Scanf("%s", &command); err != nil {
			return err
		}
		switch strings.ToUpper(command) {
		case "STATUS":
			var status election.Status
			if err := client.Call("Admin.Status", &transport.Empty{}, &status); err != nil {
				color.Red("error: %v", err)
				continue
			}
			printStatus(status)
		case "START":
			if err := client.Call("Admin.StartElections", &transport.Empty{}, &transport.Ack{}); err != nil {
				color.Red("error: %v", err)
				continue
			}
			color.Green("OK")
		case "RESIGN":
			if err := client.Call("Admin.Resign", &transport.Empty{}, &transport.Ack{}); err != nil {
				color.Red("error: %v", err)
				continue
			}
			color.Green("OK")
		case "PRIORITY":
			var value int32
			if _, err := fmt.Scanln(&value); err != nil {
				color.Red("error: %v", err)
				continue
			}
			if err := client.Call("Admin.SetPriority", &transport.PriorityArgs{Value: value}, &transport.Ack{}); err != nil {
				color.Red("error: %v", err)
				continue
			}
			color.Green("OK")
		case "QUIT":
			return nil
		default:
			color.Yellow("unrecognized command: %s", command)
		}
	}
}

func printStatus(s election.Status) {
	fmt.Printf("state:               %s\n", s.State)
	fmt.Printf("last_attempted_view: %d\n", s.LastAttemptedView)
	fmt.Printf("last_installed_view: %d\n", s.LastInstalledView)
	if s.Leader != nil {
		fmt.Printf("leader:              %s\n", s.Leader.String())
	} else {
		fmt.Printf("leader:              (none)\n")
	}
	fmt.Printf("node_priority:       %d\n", s.NodePriority)
	fmt.Printf("servers:             %d known\n", len(s.Servers))
}
