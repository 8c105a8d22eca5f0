// accessctl is the operator CLI for the access request pipeline. It talks to
// a running server over its HTTP API: trigger an ingest pass, review the
// pending queue, approve or reject requests, and inspect audit history.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const usage = `accessctl - manage email-detected access requests

Usage:
  accessctl <command> [flags]

Commands:
  process               run one ingest pass over the email source
  pending               list requests waiting for a decision
  list                  list requests by state (--state)
  show <id>             show one request
  approve <id>          approve a pending request and provision it
  reject <id>           reject a pending request
  provision <id>        re-run provisioning for a failed request
  history <id>          show the audit trail for a request

Global flags:
  --server <url>        server base URL (default http://localhost:8080,
                        or ACCESSGATE_SERVER)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if ue, ok := err.(usageError); ok {
			fmt.Fprintf(os.Stderr, "error: %v\n\n%s", string(ue), usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// usageError marks bad invocations so main can exit 2 with usage help.
type usageError string

func (e usageError) Error() string { return string(e) }

func run(args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	command, rest := args[0], args[1:]

	serverDefault := os.Getenv("ACCESSGATE_SERVER")
	if serverDefault == "" {
		serverDefault = "http://localhost:8080"
	}

	flagSet := pflag.NewFlagSet("accessctl "+command, pflag.ContinueOnError)
	server := flagSet.String("server", serverDefault, "server base URL")
	state := flagSet.String("state", "", "lifecycle state filter (list)")
	approver := flagSet.String("approver", "", "who is deciding (approve/reject)")
	comments := flagSet.String("comments", "", "decision comments (approve/reject)")
	limit := flagSet.Int("limit", 0, "max emails to process (process; 0 = all)")
	asJSON := flagSet.Bool("json", false, "output raw JSON")
	if err := flagSet.Parse(rest); err != nil {
		return usageError(err.Error())
	}
	positional := flagSet.Args()

	client := newClient(*server)
	out := output{json: *asJSON, w: os.Stdout}

	switch command {
	case "process":
		return cmdProcess(client, out, *limit)
	case "pending":
		return cmdPending(client, out)
	case "list":
		if *state == "" {
			return usageError("list requires --state")
		}
		return cmdList(client, out, *state)
	case "show":
		id, err := requiredID(positional)
		if err != nil {
			return err
		}
		return cmdShow(client, out, id)
	case "approve":
		id, err := requiredID(positional)
		if err != nil {
			return err
		}
		return cmdDecide(client, out, id, "approve", *approver, *comments)
	case "reject":
		id, err := requiredID(positional)
		if err != nil {
			return err
		}
		return cmdDecide(client, out, id, "reject", *approver, *comments)
	case "provision":
		id, err := requiredID(positional)
		if err != nil {
			return err
		}
		return cmdProvision(client, out, id)
	case "history":
		id, err := requiredID(positional)
		if err != nil {
			return err
		}
		return cmdHistory(client, out, id)
	case "help", "--help", "-h":
		fmt.Print(usage)
		return nil
	default:
		return usageError("unknown command: " + command)
	}
}

func requiredID(positional []string) (string, error) {
	if len(positional) != 1 || positional[0] == "" {
		return "", usageError("expected exactly one request id")
	}
	return positional[0], nil
}
