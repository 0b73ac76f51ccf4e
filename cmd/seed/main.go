package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/app"
	repolearning "github.com/yungbote/lexdrill-backend/internal/data/repos/learning"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/challenge"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var (
		from       string
		days       int
		catalog    string
		boostFor   idList
		boostHours int
		dryRun     bool
	)
	flag.StringVar(&from, "from", "", "first challenge day, YYYY-MM-DD (default today UTC)")
	flag.IntVar(&days, "days", 7, "number of days of daily challenges to write")
	flag.StringVar(&catalog, "catalog", "", "YAML item catalog to upsert (defaults to ITEM_CATALOG_PATH)")
	flag.Var(&boostFor, "double-xp", "learner id to grant a double XP boost (repeatable)")
	flag.IntVar(&boostHours, "boost-hours", 24, "double XP boost length in hours")
	flag.BoolVar(&dryRun, "dry-run", false, "print what would be written")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	cfg := app.LoadConfig(log)
	if catalog != "" {
		cfg.CatalogPath = catalog
	}

	start := clock.Date(time.Now())
	if from != "" {
		if start, err = time.Parse(time.DateOnly, from); err != nil {
			fmt.Printf("invalid -from: %v\n", err)
			os.Exit(2)
		}
	}
	items, err := app.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	var boosts []learning.Boost
	now := time.Now().UTC()
	for _, raw := range boostFor {
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			fmt.Printf("invalid learner id %q\n", raw)
			os.Exit(2)
		}
		boosts = append(boosts, learning.Boost{
			ID:        uuid.New(),
			LearnerID: id,
			Kind:      learning.BoostDoubleXP,
			StartsAt:  now,
			EndsAt:    now.Add(time.Duration(boostHours) * time.Hour),
		})
	}

	var challenges []learning.DailyChallenge
	for i := 0; i < days; i++ {
		challenges = append(challenges, challenge.DefaultSet(start.AddDate(0, 0, i))...)
	}
	if dryRun {
		fmt.Printf("items=%d challenges=%d (from %s, %d days) boosts=%d\n",
			len(items), len(challenges), start.Format(time.DateOnly), days, len(boosts))
		return
	}

	svc, err := app.OpenDatabase(log, cfg)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	dbc := dbctx.Context{Ctx: context.Background()}
	if len(items) > 0 {
		if err := repolearning.NewItemRepo(svc.DB(), log).Upsert(dbc, items); err != nil {
			fmt.Printf("upsert items: %v\n", err)
			os.Exit(1)
		}
	}
	if err := repolearning.NewDailyChallengeRepo(svc.DB(), log, nil).Upsert(dbc, challenges); err != nil {
		fmt.Printf("upsert challenges: %v\n", err)
		os.Exit(1)
	}
	boostRepo := repolearning.NewBoostRepo(svc.DB(), log)
	for _, b := range boosts {
		if err := boostRepo.Create(dbc, b); err != nil {
			fmt.Printf("grant boost to %s: %v\n", b.LearnerID, err)
			os.Exit(1)
		}
	}
	log.Info("seed complete", "items", len(items), "challenges", len(challenges), "boosts", len(boosts))
}
