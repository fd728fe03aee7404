// seed inserts a handful of example chores, tags, and completions into the
// local dev database so the due view and notification pipeline have
// something to chew on.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/infrastructure/postgres"
)

func intervalEvery(days int) domain.Schedule {
	return domain.Schedule{Kind: domain.ScheduleInterval, IntervalDays: days}
}

func cronSchedule(expr string) domain.Schedule {
	return domain.Schedule{Kind: domain.ScheduleCron, CronExpr: expr}
}

type choreSpec struct {
	name        string
	description string
	schedule    domain.Schedule
	tags        []string
	// completedDaysAgo, if non-nil, backfills one completion that many days
	// in the past so the due view has a mix of overdue/recent chores.
	completedDaysAgo *int
}

func days(n int) *int { return &n }

var tagSpecs = []string{"home", "health", "car", "admin"}

var chores = []choreSpec{
	{
		name:             "Water the plants",
		description:      "Living room + balcony pots",
		schedule:         intervalEvery(3),
		tags:             []string{"home"},
		completedDaysAgo: days(4),
	},
	{
		name:             "Take out recycling",
		description:      "Blue bin, curb by 7am",
		schedule:         cronSchedule("0 7 * * 1,4"),
		tags:             []string{"home"},
		completedDaysAgo: days(2),
	},
	{
		name:             "Refill allergy meds",
		description:      "",
		schedule:         intervalEvery(30),
		tags:             []string{"health"},
		completedDaysAgo: days(35),
	},
	{
		name:             "Rotate tires",
		description:      "Front-to-back, check tread depth",
		schedule:         intervalEvery(180),
		tags:             []string{"car"},
		completedDaysAgo: nil,
	},
	{
		name:             "Back up laptop",
		description:      "Full disk image to NAS",
		schedule:         cronSchedule("0 20 * * 0"),
		tags:             []string{"admin"},
		completedDaysAgo: days(8),
	},
	{
		name:             "Descale kettle",
		description:      "",
		schedule:         intervalEvery(60),
		tags:             []string{"home"},
		completedDaysAgo: nil,
	},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set — run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	tagRepo := postgres.NewTagRepository(pool)
	choreRepo := postgres.NewChoreRepository(pool)
	completionRepo := postgres.NewCompletionRepository(pool)

	tagIDs := make(map[string]string, len(tagSpecs))
	for _, name := range tagSpecs {
		tag, err := tagRepo.Create(ctx, &domain.Tag{Name: name})
		if err != nil {
			log.Fatalf("create tag %s: %v", name, err)
		}
		tagIDs[name] = tag.ID
	}

	var created, backfilled int
	for _, spec := range chores {
		chore, err := choreRepo.Create(ctx, &domain.Chore{
			Name:        spec.name,
			Description: spec.description,
			Schedule:    spec.schedule,
		})
		if err != nil {
			log.Fatalf("create chore %q: %v", spec.name, err)
		}
		created++

		ids := make([]string, 0, len(spec.tags))
		for _, t := range spec.tags {
			ids = append(ids, tagIDs[t])
		}
		if err := choreRepo.SetTags(ctx, chore.ID, ids); err != nil {
			log.Fatalf("tag chore %q: %v", spec.name, err)
		}

		if spec.completedDaysAgo != nil {
			completedAt := time.Now().Add(-time.Duration(*spec.completedDaysAgo) * 24 * time.Hour)
			_, err := completionRepo.Create(ctx, &domain.Completion{
				ChoreID:     chore.ID,
				CompletedAt: completedAt,
			})
			if err != nil {
				log.Fatalf("backfill completion for %q: %v", spec.name, err)
			}
			backfilled++
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Tags created:   %d\n", len(tagSpecs))
	fmt.Printf("  Chores created: %d\n", created)
	fmt.Printf("  Backfilled:     %d completions\n", backfilled)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Start the server and worker, then:")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:8080/chores/due -H \"Authorization: Bearer $JWT\"")
	fmt.Println()
	fmt.Println("  The worker materializes due chores into notification events on its own")
	fmt.Println("  poll interval (NOTIFICATION_POLL_INTERVAL_SECONDS) and dispatches them")
	fmt.Println("  over the configured channels shortly after.")
}
