// ABOUTME: Development utility that loads contacts, calendar events and messages from a YAML fixture
// ABOUTME: Times are given as days before now so seeded history stays inside the recent window

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/config"
	"github.com/harperreed/pagen/db"
	"github.com/harperreed/pagen/models"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	Contacts []fixtureContact `yaml:"contacts"`
}

type fixtureContact struct {
	Name     string           `yaml:"name"`
	Email    string           `yaml:"email"`
	Events   []fixtureEvent   `yaml:"events"`
	Messages []fixtureMessage `yaml:"messages"`
}

type fixtureEvent struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	DaysAgo     int           `yaml:"days_ago"`
	Duration    time.Duration `yaml:"duration"`
}

type fixtureMessage struct {
	Subject   string `yaml:"subject"`
	Body      string `yaml:"body"`
	Direction string `yaml:"direction"`
	DaysAgo   int    `yaml:"days_ago"`
}

type seedStats struct {
	contacts, events, messages int
}

func main() {
	fixturePath := flag.String("fixture", "", "Path to YAML fixture (required)")
	configPath := flag.String("config", "", "Config file (default: XDG config path)")
	dbPath := flag.String("db", "", "Database path (overrides config)")
	userFlag := flag.String("user", "", "User id (overrides config)")
	flag.Parse()

	if *fixturePath == "" {
		log.Fatal("Error: -fixture flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *userFlag != "" {
		cfg.UserID = *userFlag
	}

	userID := uuid.Nil
	if cfg.UserID != "" {
		userID, err = uuid.Parse(cfg.UserID)
		if err != nil {
			log.Fatalf("Invalid user id %q: %v", cfg.UserID, err)
		}
	}

	fx, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	database, err := db.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	stats, err := seed(context.Background(), db.NewContactsRepository(database), db.NewHistoryRepository(database), userID, fx, time.Now())
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	log.Printf("Seeded %d contacts, %d events, %d messages into %s", stats.contacts, stats.events, stats.messages, cfg.DatabasePath)
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fx, nil
}

// seed inserts the fixture. Contacts that already exist by email are reused;
// events and messages are always appended.
func seed(ctx context.Context, contacts *db.ContactsRepository, history *db.HistoryRepository, userID uuid.UUID, fx *fixture, now time.Time) (seedStats, error) {
	var stats seedStats

	for _, fc := range fx.Contacts {
		if fc.Name == "" {
			return stats, fmt.Errorf("contact name is required")
		}

		contact, err := contacts.FindByEmail(ctx, userID, fc.Email)
		if err != nil {
			return stats, fmt.Errorf("failed to look up %s: %w", fc.Email, err)
		}
		if contact == nil {
			contact = &models.Contact{UserID: userID, Name: fc.Name, Email: fc.Email}
			if err := contacts.Create(ctx, contact); err != nil {
				return stats, fmt.Errorf("failed to create contact %s: %w", fc.Name, err)
			}
			stats.contacts++
		}

		for _, fe := range fc.Events {
			start := now.Add(-time.Duration(fe.DaysAgo) * 24 * time.Hour)
			duration := fe.Duration
			if duration <= 0 {
				duration = time.Hour
			}
			event := &models.CalendarEvent{
				UserID:      userID,
				ContactID:   &contact.ID,
				Title:       fe.Title,
				Description: fe.Description,
				StartTime:   start,
				EndTime:     start.Add(duration),
			}
			if contact.Email != "" {
				event.Attendees = []string{contact.Email}
			}
			if err := history.InsertCalendarEvent(ctx, event); err != nil {
				return stats, err
			}
			stats.events++
		}

		for _, fm := range fc.Messages {
			message := &models.Message{
				UserID:            userID,
				ContactID:         &contact.ID,
				CounterpartyEmail: contact.Email,
				Subject:           fm.Subject,
				Body:              fm.Body,
				Direction:         fm.Direction,
				OccurredAt:        now.Add(-time.Duration(fm.DaysAgo) * 24 * time.Hour),
			}
			if err := history.InsertMessage(ctx, message); err != nil {
				return stats, err
			}
			stats.messages++
		}
	}

	return stats, nil
}
