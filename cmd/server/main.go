package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "craftguard/internal/persistence/log"
	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/recipes"
	"craftguard/internal/sim/session"
	"craftguard/internal/sim/tuning"
	"craftguard/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite craft index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	reg, err := recipes.FromCatalog(cats.Recipes)
	if err != nil {
		logger.Fatalf("build recipes: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	_ = os.MkdirAll(*dataDir, 0o755)

	idx, err := openRuntimeIndex(*dataDir, *disableDB || tune.Audit.DisableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
	}

	stats := newCraftStats()
	auditors := multiAuditor{stats}
	if tune.Audit.JSONL {
		auditLog := persistlog.NewCraftAuditLogger(*dataDir)
		defer auditLog.Close()
		auditors = append(auditors, auditLog)
	}
	var rewarder session.Rewarder
	if idx != nil {
		auditors = append(auditors, idx)
		rewarder = idx
	}

	validator := crafting.NewValidator(reg,
		crafting.WithMaxIterations(tune.MaxIterations),
		crafting.WithLogger(logger),
	)
	wsSrv := ws.NewServer(ws.Config{
		Validator: validator,
		Catalogs:  cats,
		Tuning:    tune,
		Auditor:   auditors,
		Rewarder:  rewarder,
	}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(stats, idx))
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s recipes=%d grid_width=%d max_iterations=%d", *addr, reg.Len(), tune.GridWidth, validator.MaxIterations())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiAuditor []session.Auditor

func (m multiAuditor) WriteCraftAudit(entry session.AuditEntry) error {
	for _, a := range m {
		if a != nil {
			_ = a.WriteCraftAudit(entry)
		}
	}
	return nil
}
