package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"craftguard/internal/persistence/indexdb"
	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/session"
	"craftguard/internal/sim/tuning"
)

type runtimeIndex interface {
	session.Auditor
	session.Rewarder
	Close() error
	Stats() indexdb.Stats
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("CG_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "crafts.sqlite"))
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported CG_INDEX_BACKEND: %s", backend)
	}
}
