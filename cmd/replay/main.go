package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "craftguard/internal/persistence/log"
	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/grid"
	"craftguard/internal/sim/recipes"
	"craftguard/internal/sim/session"
	"craftguard/internal/sim/transaction"
	"craftguard/internal/sim/tuning"
)

func main() {
	var (
		dataDir    = flag.String("data", "./data", "runtime data directory containing audit/")
		file       = flag.String("file", "", "single audit-*.jsonl.zst to replay (optional)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		verbose    = flag.Bool("v", false, "print every entry")
	)
	flag.Parse()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	reg, err := recipes.FromCatalog(cats.Recipes)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build recipes:", err)
		os.Exit(1)
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}
	v := crafting.NewValidator(reg, crafting.WithMaxIterations(tune.MaxIterations))

	files := []string{*file}
	if *file == "" {
		files, err = persistlog.AuditFiles(*dataDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list audit files:", err)
			os.Exit(1)
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no audit files")
		os.Exit(2)
	}

	var total, skipped, mismatched int
	for _, f := range files {
		err := persistlog.ReadCraftAudits(f, func(e session.AuditEntry) error {
			total++
			res := verifyEntry(v, e)
			switch {
			case res.Skipped:
				skipped++
			case !res.OK:
				mismatched++
				fmt.Printf("MISMATCH tx=%s player=%s recorded=%s replayed=%s\n", e.TxID, e.PlayerID, res.Recorded, res.Replayed)
			case *verbose:
				fmt.Printf("ok tx=%s %s\n", e.TxID, res.Recorded)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "read audits:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("replayed=%d skipped=%d mismatched=%d\n", total, skipped, mismatched)
	if mismatched > 0 {
		os.Exit(1)
	}
}

type verdict struct {
	Recorded string
	Replayed string
	OK       bool
	Skipped  bool
}

const verdictAccepted = "ACCEPTED"

// verifyEntry re-runs validation for one recorded transaction against the
// recorded grid. Stale and faulted entries depended on state the audit does
// not carry and are skipped.
func verifyEntry(v *crafting.Validator, e session.AuditEntry) verdict {
	out := verdict{Recorded: verdictAccepted}
	if !e.Accepted {
		out.Recorded = e.Reason
	}
	expect := out.Recorded
	switch crafting.Reason(e.Reason) {
	case crafting.ReasonStaleAction, "FAULT":
		out.Skipped = true
		return out
	case crafting.ReasonCancelled:
		// The validator accepted; the executor vetoed.
		expect = verdictAccepted
	}
	if e.GridWidth <= 0 {
		out.Skipped = true
		return out
	}

	_, delta, err := transaction.Build(e.Actions, nil)
	if err != nil {
		out.Replayed = string(crafting.ReasonStaleAction)
		return out
	}
	res, err := v.Validate(grid.TrimCells(e.Grid, e.GridWidth), delta)
	switch {
	case err == nil:
		out.Replayed = verdictAccepted
		if e.Accepted && res.Recipe.ID() != e.RecipeID {
			out.Replayed = "ACCEPTED:" + res.Recipe.ID()
			return out
		}
	default:
		r, ok := crafting.ReasonOf(err)
		if !ok {
			out.Replayed = "FAULT"
			return out
		}
		out.Replayed = string(r)
	}
	out.OK = out.Replayed == expect
	return out
}
