package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/slug"
)

// Default development credentials created by Seed.
const (
	SeedAdminEmail    = "admin@inkwell.local"
	SeedAdminPassword = "admin"
)

// seedCategories are the starter categories for a fresh development blog.
var seedCategories = []struct {
	Name        string
	Description string
}{
	{"Technology", "Latest trends and innovations in technology"},
	{"Web Development", "Modern web development techniques and frameworks"},
	{"Tutorial", "Step-by-step guides and learning resources"},
	{"Best Practices", "Industry standards and recommended approaches"},
	{"News", "Latest updates and announcements"},
}

// Seed populates the database with initial development data: a default
// admin author and a handful of categories. Each part is skipped when its
// table already has rows.
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedCategoryRows(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
	`, SeedAdminEmail, string(hash), "Admin", "admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", SeedAdminEmail,
		"password", SeedAdminPassword,
	)
	return nil
}

func seedCategoryRows(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("categories already seeded, skipping")
		return nil
	}

	for _, c := range seedCategories {
		_, err := db.Exec(`
			INSERT INTO categories (name, slug, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO NOTHING
		`, c.Name, slug.Generate(c.Name), c.Description)
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", c.Name, err)
		}
	}

	slog.Info("database seeded with sample categories", "count", len(seedCategories))
	return nil
}
