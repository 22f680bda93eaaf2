package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"clubreg/entity"
	"clubreg/impl/allocator"
	"clubreg/internal/config"
	"clubreg/internal/database"
	"clubreg/internal/legacy"
	"clubreg/lib/clock"
	"clubreg/lib/sl"
)

// roster-import moves the old MySQL member list into the document store.
// Members arrive as approved records with freshly issued membership ids;
// duplicates already present in the store are skipped.
func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := slog.New(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
	).With(slog.String("batch", uuid.NewString()))

	mongo := database.NewMongoClient(conf)
	if err := mongo.EnsureIndexes(); err != nil {
		log.Error("ensure indexes", sl.Err(err))
		os.Exit(1)
	}

	roster, err := legacy.Open(conf.Legacy, log)
	if err != nil {
		log.Error("open legacy roster", sl.Err(err))
		os.Exit(1)
	}
	defer roster.Close()

	alloc := allocator.New(
		mongo,
		conf.Membership.Prefix,
		conf.Membership.PadWidth,
		conf.Membership.MaxAttempts,
		log,
	)

	entries, err := roster.Entries()
	if err != nil {
		log.Error("load roster", sl.Err(err))
		os.Exit(1)
	}
	log.Info("roster loaded", slog.Int("entries", len(entries)))

	imported, skipped := 0, 0
	for _, entry := range entries {
		approvedAt := entry.JoinedAt.UTC()
		expiry := clock.ExpiryFrom(approvedAt)
		now := time.Now().UTC()

		member := &entity.Member{
			Name:       entry.Name,
			Age:        entry.Age,
			Phone:      entry.Phone,
			Email:      entry.Email,
			Status:     entity.StatusApproved,
			ApprovedAt: &approvedAt,
			ExpiryDate: &expiry,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		created, err := alloc.CreateWithRetry(member)
		if errors.Is(err, entity.ErrDuplicatePhone) {
			log.With(slog.String("phone", entry.Phone)).Warn("already imported, skipping")
			skipped++
			continue
		}
		if err != nil {
			log.With(slog.String("phone", entry.Phone)).Error("import member", sl.Err(err))
			os.Exit(1)
		}
		log.With(
			slog.String("membership_id", created.MembershipID),
			slog.String("name", created.Name),
		).Debug("member imported")
		imported++
	}

	log.Info("import finished",
		slog.Int("imported", imported),
		slog.Int("skipped", skipped),
	)
}
