package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"selectrate/commontypes"
	"selectrate/config"
	"selectrate/modules"
	"selectrate/modules/currency"
	"selectrate/storage"
)

const (
	defaultModuleIcon  = "https://img.icons8.com/badges/100/decision.png"
	currencyModuleIcon = "https://img.icons8.com/badges/100/euro-exchange.png"
	shutdownTimeout    = 5 * time.Second
)

// lastConversionReader backs the /copy endpoint.
type lastConversionReader interface {
	LastConversion(ctx context.Context) (storage.LastConversion, error)
}

type server struct {
	modules        []modules.Module
	rates          *currency.RateCache
	breaker        *currency.CircuitBreaker
	pipeline       *currency.Pipeline
	prefs          currency.PreferencesSource
	last           lastConversionReader
	requestTimeout time.Duration
	logger         log.Logger
}

func main() {
	configPath := flag.String("config", "selectrate.toml", "path to the TOML config file")
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	cfg, err := config.Load(*configPath)
	if err != nil {
		level.Error(logger).Log("msg", "loading config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	logger = level.NewFilter(logger, levelOption(cfg.LogLevel))

	if err := run(cfg, *configPath, logger); err != nil {
		level.Error(logger).Log("msg", "selectrate stopped", "err", err)
		os.Exit(1)
	}
}

func levelOption(name string) level.Option {
	switch name {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func run(cfg *config.Config, configPath string, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening store %s: %w", cfg.DatabasePath, err)
	}
	defer store.Close()

	breaker := currency.NewCircuitBreaker(0, 0)
	var source currency.RateSource = currency.NewHTTPRateSource(cfg.RatesURL, cfg.RequestTimeout.Duration)
	source = currency.NewLoggingRateSource(log.With(logger, "component", "rate_source"), source)
	source = currency.NewCircuitRateSource(breaker, source)
	rates := currency.NewRateCache(source, currency.RateCacheOptions{
		RefreshInterval:    cfg.RefreshInterval.Duration,
		MinRefreshInterval: cfg.MinRefreshInterval.Duration,
		Store:              store,
		Logger:             logger,
	})
	if err := rates.LoadFromStore(ctx); err != nil {
		level.Warn(logger).Log("msg", "ignoring persisted rates", "err", err)
	}
	level.Info(logger).Log("msg", "performing initial fetch of currency rates", "url", cfg.RatesURL)
	if err := rates.InitialFetch(ctx); err != nil {
		level.Warn(logger).Log("msg", "initial fetch failed, serving last known rates", "err", err)
	}
	rates.StartBackgroundUpdater(ctx)

	var prefs currency.PreferencesSource
	watcher, err := config.NewWatcher(configPath, cfg, logger)
	if err != nil {
		level.Warn(logger).Log("msg", "config will not be reloaded", "err", err)
		prefs = currency.StaticPreferences(cfg.CurrencyPreferences())
	} else {
		go watcher.Run(ctx)
		prefs = watcher
	}

	aliases, err := currency.DefaultAliasTable()
	if err != nil {
		return err
	}
	if cfg.AliasesPath != "" {
		overrides, err := currency.LoadAliasOverridesFromFile(cfg.AliasesPath)
		if err != nil {
			return err
		}
		aliases = aliases.WithOverrides(overrides)
	}
	level.Info(logger).Log("msg", "alias table ready", "aliases", aliases.Len())

	pipeline := currency.NewPipeline(currency.NewResolver(aliases))
	srv := &server{
		modules: []modules.Module{
			currency.NewSelectionConverterModule(pipeline, prefs, store, currencyModuleIcon, logger),
		},
		rates:          rates,
		breaker:        breaker,
		pipeline:       pipeline,
		prefs:          prefs,
		last:           store,
		requestTimeout: cfg.RequestTimeout.Duration,
		logger:         logger,
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			level.Warn(logger).Log("msg", "http shutdown", "err", err)
		}
	}()

	level.Info(logger).Log("msg", "selection converter listening", "addr", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}
	return nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleQuery)
	mux.HandleFunc("/currencies", s.handleCurrencies)
	mux.HandleFunc("/aliases", s.handleAliases)
	mux.HandleFunc("/copy", s.handleCopy)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query().Get("q")
	requestID := uuid.NewString()
	logger := log.With(s.logger, "request_id", requestID)
	w.Header().Set("X-Request-Id", requestID)

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	var allResults []commontypes.FlowResult
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, mod := range s.modules {
		wg.Add(1)
		go func(m modules.Module) {
			defer wg.Done()
			results, err := m.ProcessQuery(ctx, query, s.rates)
			if err != nil {
				level.Warn(logger).Log("msg", "module failed", "module", m.Name(), "query", query, "err", err)
				return
			}

			mu.Lock()
			for _, res := range results {
				if res.IcoPath == "" {
					res.IcoPath = m.DefaultIconPath()
				}
				if res.IcoPath == "" {
					res.IcoPath = defaultModuleIcon
				}
				allResults = append(allResults, res)
			}
			mu.Unlock()
		}(mod)
	}

	waitChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
	case <-ctx.Done():
		level.Warn(logger).Log("msg", "request timed out", "query", query, "err", ctx.Err())
	}

	mu.Lock()
	results := append([]commontypes.FlowResult(nil), allResults...)
	mu.Unlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	// Only a non-empty query gets a "no results" item; an empty one is the launcher's idle view.
	if len(results) == 0 {
		results = []commontypes.FlowResult{}
		if query != "" {
			results = append(results, commontypes.FlowResult{
				Title:         "No results found",
				SubTitle:      "No amount with a known currency in the selection.",
				IcoPath:       defaultModuleIcon,
				JsonRPCAction: commontypes.ChangeQueryAction(query, false),
			})
		}
	}

	level.Debug(logger).Log("msg", "query served", "query", query, "results", len(results))
	s.writeJSON(w, results)
}

type currencyListing struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Rate        float64 `json:"rate"`
	InverseRate float64 `json:"inverseRate"`
	Date        string  `json:"date,omitempty"`
}

type currenciesResponse struct {
	Target     string            `json:"target"`
	Currencies []currencyListing `json:"currencies"`
}

func (s *server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	snapshot := s.rates.Snapshot()
	resp := currenciesResponse{
		Target:     s.targetCurrency(),
		Currencies: make([]currencyListing, 0, len(snapshot)),
	}
	for _, code := range snapshot.Codes() {
		rate := snapshot[code]
		resp.Currencies = append(resp.Currencies, currencyListing{
			Code:        code,
			Name:        rate.Name,
			Rate:        rate.Rate,
			InverseRate: rate.InverseRate,
			Date:        rate.Date,
		})
	}
	s.writeJSON(w, resp)
}

func (s *server) handleAliases(w http.ResponseWriter, r *http.Request) {
	aliases := s.pipeline.Resolver().AmbiguousAliases(s.rates.Snapshot(), s.prefs.Preferences().PreferredAliases)
	if aliases == nil {
		aliases = []currency.AmbiguousAlias{}
	}
	s.writeJSON(w, aliases)
}

type copyResponse struct {
	Selection string `json:"selection"`
	Value     string `json:"value"`
}

func (s *server) handleCopy(w http.ResponseWriter, r *http.Request) {
	last, err := s.last.LastConversion(r.Context())
	if err != nil {
		level.Error(s.logger).Log("msg", "reading last conversion", "err", err)
		http.Error(w, "last conversion unavailable", http.StatusInternalServerError)
		return
	}
	if last.ConvertedValue() == "" {
		http.Error(w, "nothing converted yet", http.StatusNotFound)
		return
	}
	s.writeJSON(w, copyResponse{Selection: last.Selection, Value: last.ConvertedValue()})
}

type healthResponse struct {
	Status      string    `json:"status"`
	LastRefresh time.Time `json:"lastRefresh"`
	AgeSeconds  int64     `json:"ageSeconds"`
	Stale       bool      `json:"stale"`
	Currencies  int       `json:"currencies"`
	Circuit     string    `json:"circuit,omitempty"`
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Stale:      s.rates.IsStale(),
		Currencies: len(s.rates.Snapshot()),
	}
	if s.breaker != nil {
		resp.Circuit = string(s.breaker.State())
	}
	if last := s.rates.LastRefresh(); !last.IsZero() {
		resp.LastRefresh = last.UTC()
		resp.AgeSeconds = int64(time.Since(last).Seconds())
	} else {
		resp.Status = "no rates"
	}
	s.writeJSON(w, resp)
}

func (s *server) targetCurrency() string {
	return s.prefs.Preferences().TargetCurrency
}

func (s *server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Error(s.logger).Log("msg", "encoding JSON response", "err", err)
	}
}
