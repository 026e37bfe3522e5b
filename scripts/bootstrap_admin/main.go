// Command bootstrap_admin seeds the first administrator account so the
// console can be logged into on a fresh database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-adp-api/pkg/config"
	"github.com/noah-isme/uni-adp-api/pkg/database"
)

func main() {
	var (
		email    string
		password string
		fullName string
	)

	flag.StringVar(&email, "email", "", "Administrator email address")
	flag.StringVar(&password, "password", "", "Initial password (min 8 characters)")
	flag.StringVar(&fullName, "name", "System Administrator", "Display name")
	flag.Parse()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		log.Fatal("usage: bootstrap_admin -email <email> -password <password> [-name <name>]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		log.Fatalf("failed to check existing account: %v", err)
	}
	if exists {
		log.Fatalf("an account with email %s already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'ADMIN', TRUE, $5, $5)`,
		id, email, string(hash), strings.TrimSpace(fullName), now)
	if err != nil {
		log.Fatalf("failed to create administrator: %v", err)
	}

	fmt.Printf("administrator %s created (id %s)\n", email, id)
}
