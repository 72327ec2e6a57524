package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "craftguard/internal/persistence/log"
	"craftguard/internal/sim/session"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	files, err := persistlog.AuditFiles(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, f := range files {
		fmt.Println(filepath.Base(f))
	}
}

// auditCmd prints the entries of one audit file, optionally for one player.
func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	player := fs.String("player", "", "player_id filter (optional)")
	rejectedOnly := fs.Bool("rejected", false, "only rejected transactions")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: admin audit [-player id] [-rejected] <audit-*.jsonl.zst>")
		os.Exit(2)
	}
	err := persistlog.ReadCraftAudits(fs.Arg(0), func(e session.AuditEntry) error {
		if *player != "" && e.PlayerID != *player {
			return nil
		}
		if *rejectedOnly && e.Accepted {
			return nil
		}
		printJSON(e)
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
