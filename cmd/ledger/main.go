package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"betledger/internal/betform"
	"betledger/internal/catalog"
	"betledger/internal/chart"
	"betledger/internal/config"
	"betledger/internal/database"
	"betledger/internal/feed"
	"betledger/internal/fixtures"
	"betledger/internal/ledger"
	"betledger/internal/logging"
	"betledger/internal/model"
	"betledger/internal/settings"
	"betledger/internal/settlement"
	"betledger/internal/tags"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type options struct {
	configPath string

	listSport string
	search    string
	details   string

	place     string
	stake     string
	bookmaker string
	tagIDs    []string
	settle    string

	set        []string
	listTags   bool
	addTag     string
	removeTags []string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("ledger", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", ".", "directory holding config.yaml")

	fs.StringVar(&opts.listSport, "matches", "", "list catalog matches for a sport (\"all\" for every sport)")
	fs.StringVar(&opts.search, "search", "", "search matches by team or league")
	fs.StringVar(&opts.details, "details", "", "show the handicap and total lines of a match")

	fs.StringVar(&opts.place, "place", "", "log a bet on MATCH_ID:LINE_ID")
	fs.StringVar(&opts.stake, "stake", "", "stake for --place, defaults to the saved default stake")
	fs.StringVar(&opts.bookmaker, "bookmaker", "", "bookmaker for --place")
	fs.StringSliceVar(&opts.tagIDs, "tag", nil, "tag id for --place, repeatable")
	fs.StringVar(&opts.settle, "settle", "", "settle a bet as BET_ID:won|lost|void")

	fs.StringArrayVar(&opts.set, "set", nil, "change a setting, e.g. --set lock_stake=true (repeatable)")
	fs.BoolVar(&opts.listTags, "tags", false, "list tags")
	fs.StringVar(&opts.addTag, "add-tag", "", "add a tag as NAME or NAME:COLOR")
	fs.StringSliceVar(&opts.removeTags, "remove-tag", nil, "remove a tag by id, repeatable")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("invalid flags: %v", err)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, &cfg, logger, opts, os.Stdout); err != nil {
		stop()
		logger.WithError(err).Fatal("Ledger failed")
	}
}

// run executes the requested commands and prints the ledger. Deferred
// cleanup runs before main reports an error.
func run(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, opts options, out io.Writer) error {
	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return err
	}
	if len(opts.set) > 0 {
		patch, err := settings.ParsePatch(opts.set)
		if err != nil {
			return err
		}
		if _, err := store.Update(patch); err != nil {
			return err
		}
		writeSettings(out, store.Get())
	}
	st := store.Get()

	registry, err := tags.Open(cfg.Settings.TagsPath)
	if err != nil {
		return err
	}
	if err := manageTags(registry, opts); err != nil {
		return err
	}
	if opts.listTags || opts.addTag != "" || len(opts.removeTags) > 0 {
		writeTags(out, registry.List())
	}

	matches, err := fixtures.Matches()
	if err != nil {
		return fmt.Errorf("load match catalog: %w", err)
	}
	cat := catalog.New(matches)
	if err := browseCatalog(out, cat, opts); err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer closeRepo()

	svc := ledger.NewService(logger, repo, cfg)

	if opts.place != "" {
		if err := placeBet(ctx, out, svc, cat, registry, st, opts); err != nil {
			return fmt.Errorf("place bet: %w", err)
		}
	}

	if opts.settle != "" {
		id, status, ok := strings.Cut(opts.settle, ":")
		if !ok {
			return fmt.Errorf("--settle expects BET_ID:STATUS, got %q", opts.settle)
		}
		if _, err := svc.Settle(ctx, id, model.BetStatus(status)); err != nil {
			return fmt.Errorf("settle bet: %w", err)
		}
	}

	if cfg.Settlement.Enabled {
		if err := runSettlement(ctx, cfg, logger, svc, st.Notifications); err != nil {
			logger.WithError(err).Error("Settlement feed stopped")
		}
	}

	// A signal ends the feed by cancelling ctx; the closing summary still has
	// to be read.
	final := context.WithoutCancel(ctx)
	snap, err := svc.Snapshot(final)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	writeReport(out, snap, st)

	if cfg.Chart.OutputPath != "" {
		r := chart.NewRenderer(logger, cfg.Chart.Width, cfg.Chart.Height)
		img, err := r.RenderPNG(snap.Equity, snap.Scale)
		if err != nil {
			return fmt.Errorf("render equity chart: %w", err)
		}
		if err := os.WriteFile(cfg.Chart.OutputPath, img, 0o644); err != nil {
			return fmt.Errorf("write equity chart: %w", err)
		}
		logger.WithField("path", cfg.Chart.OutputPath).Info("Equity chart written")
	}
	return nil
}

func manageTags(registry *tags.Registry, opts options) error {
	if opts.addTag != "" {
		name, color, _ := strings.Cut(opts.addTag, ":")
		if _, err := registry.Add(name, color); err != nil {
			return err
		}
	}
	for _, id := range opts.removeTags {
		if err := registry.Remove(id); err != nil {
			return err
		}
	}
	return nil
}

func browseCatalog(out io.Writer, cat *catalog.Catalog, opts options) error {
	if opts.listSport != "" {
		if opts.listSport == "all" {
			for _, sport := range cat.Sports() {
				fmt.Fprintf(out, "== %s ==\n", sport)
				writeMatches(out, cat.Matches(sport))
			}
		} else {
			writeMatches(out, cat.Matches(opts.listSport))
		}
	}
	if opts.search != "" {
		writeMatches(out, cat.Search(opts.search))
	}
	if opts.details != "" {
		m, err := cat.Details(opts.details)
		if err != nil {
			return err
		}
		writeDetails(out, m)
	}
	return nil
}

// openRepository returns the configured bet store and a func releasing it.
func openRepository(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (database.Repository, func(), error) {
	var seed []model.BetRecord
	if cfg.Ledger.SeedFixtures {
		bets, err := fixtures.Bets()
		if err != nil {
			return nil, nil, err
		}
		seed = bets
	}

	switch cfg.Ledger.Source {
	case "postgres":
		url := cfg.Database.URL()
		if err := database.RunMigrations(url); err != nil {
			return nil, nil, err
		}
		pool, err := database.NewConnection(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		repo := &database.PostgresRepository{Pool: pool}
		for _, b := range seed {
			if err := repo.LogBet(ctx, b); err != nil && !errors.Is(err, database.ErrDuplicateBet) {
				pool.Close()
				return nil, nil, fmt.Errorf("seed bet %s: %w", b.ID, err)
			}
		}
		logger.WithField("host", cfg.Database.Host).Info("Connected to database")
		return repo, pool.Close, nil
	default:
		repo, err := database.NewMemoryRepository(seed...)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("bets", len(seed)).Info("Using in-memory ledger")
		return repo, func() {}, nil
	}
}

func placeBet(ctx context.Context, out io.Writer, svc *ledger.Service, cat *catalog.Catalog, registry *tags.Registry, st settings.Settings, opts options) error {
	matchID, lineID, ok := strings.Cut(opts.place, ":")
	if !ok {
		return fmt.Errorf("--place expects MATCH_ID:LINE_ID, got %q", opts.place)
	}
	match, line, err := cat.Line(matchID, lineID)
	if err != nil {
		return err
	}

	draft := betform.NewDraft(match, line, st)
	if opts.stake != "" {
		draft.Stake = opts.stake
	}
	draft.Bookmaker = opts.bookmaker
	draft.TagIDs = opts.tagIDs
	if !draft.CanSubmit() {
		return fmt.Errorf("line %s needs odds and a stake; pass --stake or set default_stake", lineID)
	}

	bet, err := betform.New(st, betform.WithTags(registry)).Submit(draft)
	if err != nil {
		return err
	}
	if err := svc.AddBet(ctx, bet); err != nil {
		return err
	}
	fmt.Fprintf(out, "Logged %s: %s @ %.2f, stake %.2f, potential return %s %.2f\n",
		bet.ID, bet.Outcome, bet.Odds, bet.Stake, settings.CurrencySymbol(st.Currency), betform.PotentialReturn(bet.Stake, bet.Odds))
	return nil
}

// runSettlement streams results into the ledger until the feed ends or ctx
// is cancelled.
func runSettlement(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger, svc *ledger.Service, notify bool) error {
	client, err := feed.NewClient(cfg.Settlement.Feed, logger, &cfg.Settlement)
	if err != nil {
		return err
	}

	events := make(chan model.SettlementEvent, cfg.Settlement.BufferSize)
	streamErr := make(chan error, 1)
	go func() {
		defer close(events)
		streamErr <- client.StartStream(ctx, events)
	}()

	settler := settlement.NewSettler(logger, svc, notify)
	n := settler.Run(ctx, events)
	logger.WithFields(logrus.Fields{
		"feed":    client.GetName(),
		"settled": n,
	}).Info("Settlement finished")

	if ctx.Err() != nil {
		return nil
	}
	return <-streamErr
}
