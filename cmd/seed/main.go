// Package main provides a tool to seed the database with demo travel data.
//
// This creates a couple of demo accounts, trips with grid-placed moments, and
// an active share link so the app has something to show on first run.
//
// Usage:
//
//	DATA_PATH=~/Driftlog/data go run ./cmd/seed
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/driftlog/driftlog-server/internal/auth"
	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/driftlog/driftlog-server/internal/service"
	"github.com/driftlog/driftlog-server/internal/store"
	"github.com/driftlog/driftlog-server/internal/validation"
)

var password = flag.String("password", "wanderlust1", "Password for the demo accounts")

type seedMoment struct {
	title string
	note  string
	place string
	days  int // offset from the trip start date
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Driftlog/data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s, err := store.New(dbPath, logger, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	// A throwaway signing key; seeded sessions are not reused by the server.
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	tokens, err := auth.NewTokenService(hex.EncodeToString(keyBytes), 15*time.Minute, 720*time.Hour)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	validate := validation.New()
	access := service.NewAccessService(s, logger)
	authSvc := service.NewAuthService(s, tokens, validate, logger)
	trips := service.NewTripService(s, access, nil, validate, logger)
	moments := service.NewMomentService(s, access, validate, logger)

	ctx := context.Background()

	mara := registerUser(ctx, authSvc, "mara@example.com", "Mara")
	noah := registerUser(ctx, authSvc, "noah@example.com", "Noah")

	japanStart := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	japan := createTrip(ctx, trips, mara, service.CreateTripRequest{
		Title:       "Japan in Bloom",
		Description: "Two weeks chasing cherry blossoms from Tokyo to Kyoto.",
		StartDate:   &japanStart,
	})
	addMoments(ctx, moments, japan, mara, japanStart, []seedMoment{
		{title: "Landing in Tokyo", note: "Narita at dawn, first conbini onigiri.", place: "Tokyo", days: 0},
		{title: "Shibuya crossing", note: "Crossed it four times just to feel it.", place: "Tokyo", days: 1},
		{title: "Fushimi Inari at dawn", note: "Beat the crowds, ten thousand gates to ourselves.", place: "Kyoto", days: 5},
		{title: "Nishiki market lunch", note: "Grilled scallops and matcha soft serve.", place: "Kyoto", days: 6},
		{title: "Arashiyama bamboo grove", note: "The sound of the wind is the whole point.", place: "Kyoto", days: 7},
	})

	lisbonStart := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	lisbon := createTrip(ctx, trips, mara, service.CreateTripRequest{
		Title:       "Lisbon Long Weekend",
		Description: "Pastéis de nata and miradouros.",
		StartDate:   &lisbonStart,
	})
	addMoments(ctx, moments, lisbon, mara, lisbonStart, []seedMoment{
		{title: "Tram 28 to Alfama", note: "Stood the whole way, worth it.", place: "Lisbon", days: 0},
		{title: "Sunset at Miradouro da Graça", note: "Best view of the castle.", place: "Lisbon", days: 1},
		{title: "Belém pastry run", note: "Six pastéis between two people. No regrets.", place: "Lisbon", days: 2},
	})

	// Share the Japan trip and have Noah join as a collaborator.
	shared, err := access.GenerateShareLink(ctx, japan, mara)
	if err != nil {
		log.Fatalf("Failed to enable sharing: %v", err)
	}
	fmt.Printf("Share link for %q: slug=%s code=%s\n", shared.Title, shared.ShareSlug, shared.ShareCode)

	if _, err := access.JoinViaLink(ctx, shared.ShareSlug, noah); err != nil {
		log.Fatalf("Failed to join via link: %v", err)
	}
	if _, err := access.UpdatePermission(ctx, japan, mara, noah, domain.RoleCollaborator); err != nil {
		log.Fatalf("Failed to promote member: %v", err)
	}
	fmt.Println("Noah joined Japan in Bloom as a collaborator")

	fmt.Println("\nDone. Demo accounts:")
	fmt.Printf("  mara@example.com / %s\n", *password)
	fmt.Printf("  noah@example.com / %s\n", *password)
}

func registerUser(ctx context.Context, authSvc *service.AuthService, email, name string) string {
	resp, err := authSvc.Register(ctx, service.RegisterRequest{
		Email:       email,
		Password:    *password,
		DisplayName: name,
	}, "driftlog-seed")
	if err != nil {
		log.Fatalf("Failed to register %s: %v", email, err)
	}
	fmt.Printf("Created user %s (%s)\n", name, resp.User.ID)
	return resp.User.ID
}

func createTrip(ctx context.Context, trips *service.TripService, ownerID string, req service.CreateTripRequest) string {
	trip, err := trips.Create(ctx, ownerID, req)
	if err != nil {
		log.Fatalf("Failed to create trip %q: %v", req.Title, err)
	}
	fmt.Printf("Created trip %q (%s)\n", trip.Title, trip.ID)
	return trip.ID
}

func addMoments(ctx context.Context, moments *service.MomentService, tripID, userID string, start time.Time, items []seedMoment) {
	for _, m := range items {
		created, err := moments.Create(ctx, tripID, userID, service.CreateMomentRequest{
			Title: m.title,
			Note:  m.note,
			Place: m.place,
			Date:  start.AddDate(0, 0, m.days),
		})
		if err != nil {
			log.Fatalf("Failed to create moment %q: %v", m.title, err)
		}
		fmt.Printf("  moment %q at column %d row %.1f\n", created.Title, created.GridPosition.Column, created.GridPosition.Row)
	}
}
