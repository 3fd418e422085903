package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"actilog/internal/config"
	"actilog/internal/db"
	"actilog/internal/model"
	"actilog/internal/repository"
)

// defaultCourtiers covers fresh installs that have no referential export yet.
var defaultCourtiers = []string{
	"AXA", "Allianz", "Generali", "MAIF", "MACIF",
	"MMA", "Groupama", "Crédit Agricole", "Autres",
}

// SeedCourtierData is one row of a courtier referential export.
type SeedCourtierData struct {
	Name   string `json:"name"`
	OdooID *int   `json:"odoo_id"`
}

func main() {
	file := flag.String("file", "", "path to a courtiers JSON export")
	flag.Parse()

	log.Println("Starting seed script...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gormDB, err := db.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Courtier{}, &model.Entry{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	courtierRepo := repository.NewCourtierRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	rows, err := loadCourtiers(ctx, courtierRepo, *file)
	if err != nil {
		log.Fatalf("Failed to load courtiers: %v", err)
	}

	created, updated, skipped, err := seedCourtiers(ctx, courtierRepo, rows)
	if err != nil {
		log.Fatalf("Failed to seed courtiers: %v", err)
	}
	if skipped > 0 {
		log.Printf("Skipped %d rows without a name", skipped)
	}

	adminCreated, err := ensureAdmin(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to ensure admin account: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New courtiers created: %d", created)
	log.Printf("  - Existing courtiers updated: %d", updated)
	if adminCreated {
		log.Printf("  - Admin account created")
	} else {
		log.Printf("  - Admin account already present")
	}
}

// loadCourtiers reads a referential export, or falls back to the default
// list when no file is given and the table is still empty.
func loadCourtiers(ctx context.Context, repo repository.CourtierRepository, path string) ([]SeedCourtierData, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read export file: %w", err)
		}
		var rows []SeedCourtierData
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		log.Printf("Loaded %d courtiers from %s", len(rows), path)
		return rows, nil
	}

	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count courtiers: %w", err)
	}
	if count > 0 {
		log.Printf("No export file given and %d courtiers already present, skipping courtier import", count)
		return nil, nil
	}

	log.Printf("No export file given, seeding %d default courtiers", len(defaultCourtiers))
	rows := make([]SeedCourtierData, 0, len(defaultCourtiers))
	for _, name := range defaultCourtiers {
		rows = append(rows, SeedCourtierData{Name: name})
	}
	return rows, nil
}

// seedCourtiers upserts courtiers by name, refreshing odoo ids on existing rows.
func seedCourtiers(ctx context.Context, repo repository.CourtierRepository, rows []SeedCourtierData) (created, updated, skipped int, err error) {
	for _, row := range rows {
		if row.Name == "" {
			skipped++
			continue
		}

		existing, err := repo.FindByName(ctx, row.Name)
		if err != nil && err != gorm.ErrRecordNotFound {
			return created, updated, skipped, fmt.Errorf("error checking courtier %q: %w", row.Name, err)
		}

		if existing != nil {
			if row.OdooID == nil || (existing.OdooID != nil && *existing.OdooID == *row.OdooID) {
				continue
			}
			existing.OdooID = row.OdooID
			if err := repo.Update(ctx, existing); err != nil {
				return created, updated, skipped, fmt.Errorf("error updating courtier %q: %w", row.Name, err)
			}
			updated++
		} else {
			courtier := &model.Courtier{Name: row.Name, OdooID: row.OdooID, IsActive: true}
			if err := repo.Create(ctx, courtier); err != nil {
				return created, updated, skipped, fmt.Errorf("error creating courtier %q: %w", row.Name, err)
			}
			created++
		}
	}

	return created, updated, skipped, nil
}

// ensureAdmin creates the bootstrap admin account when missing. Credentials
// come from ADMIN_USERNAME/ADMIN_PASSWORD, defaulting to the historical
// admin/admin123 pair.
func ensureAdmin(ctx context.Context, repo repository.UserRepository) (bool, error) {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Println("ADMIN_PASSWORD not set, using the default password; change it after first login")
	}

	existing, err := repo.FindByUsername(ctx, username)
	if err != nil && err != gorm.ErrRecordNotFound {
		return false, fmt.Errorf("error checking admin account: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("error hashing admin password: %w", err)
	}

	admin := &model.User{
		Username:     username,
		Email:        username + "@actilog.local",
		FullName:     "Administrateur",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("error creating admin account: %w", err)
	}
	return true, nil
}
