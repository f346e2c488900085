// Package seed bootstraps a fresh data room: the first admin account and,
// optionally, a deterministic set of demo folders.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Voltaic314/DataRoom/auth"
	"github.com/Voltaic314/DataRoom/core/folders"
	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	typesdb "github.com/Voltaic314/DataRoom/types/db"
)

// Options controls what Seed creates
type Options struct {
	AdminEmail    string
	AdminName     string
	AdminPassword string

	// DemoFolders is how many sample folders to create. Zero skips them.
	DemoFolders int
	// RandSeed fixes the folder names. Zero picks one from the clock.
	RandSeed int64
}

// Result reports what a run actually did
type Result struct {
	AdminCreated bool
	Folders      []string
	RandSeed     int64
}

var (
	dealKinds  = []string{"Series A", "Series B", "Acquisition", "Audit", "Due Diligence", "Board Pack"}
	dealTopics = []string{"Financials", "Legal", "Contracts", "HR", "IP", "Tax", "Compliance"}
)

// Seed is safe to run more than once: an existing admin is left untouched
// and folders are only added when the room has none.
func Seed(ctx context.Context, database *db.DB, opts Options) (*Result, error) {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" || opts.AdminPassword == "" {
		return nil, fmt.Errorf("admin email and password are required")
	}
	if opts.AdminName == "" {
		opts.AdminName = "Administrator"
	}

	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	res := &Result{RandSeed: seed}

	created, err := ensureAdmin(ctx, database, email, opts.AdminName, opts.AdminPassword)
	if err != nil {
		return nil, err
	}
	res.AdminCreated = created

	if opts.DemoFolders <= 0 {
		return res, nil
	}

	var existing int64
	if err := database.QueryRow(ctx, "SELECT CAST(COUNT(*) AS BIGINT) FROM "+tables.Folders).Scan(&existing); err != nil {
		return nil, fmt.Errorf("count folders: %w", err)
	}
	if existing > 0 {
		return res, nil
	}

	admin := &auth.Claims{Email: email, Role: typesdb.RoleAdmin, Name: opts.AdminName}
	rng := rand.New(rand.NewSource(seed))
	for _, name := range folderNames(rng, opts.DemoFolders) {
		if _, err := folders.CreateFolder(ctx, database, admin, folders.CreateFolderRequest{Name: name}); err != nil {
			return nil, fmt.Errorf("create folder %q: %w", name, err)
		}
		res.Folders = append(res.Folders, name)
	}
	return res, nil
}

func ensureAdmin(ctx context.Context, database *db.DB, email, name, password string) (bool, error) {
	var n int64
	err := database.QueryRow(ctx, "SELECT CAST(COUNT(*) AS BIGINT) FROM "+tables.Users+" WHERE email = $1", email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("look up admin: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	_, err = database.Exec(ctx,
		"INSERT INTO "+tables.Users+" (email, name, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)",
		email, name, hash, typesdb.RoleAdmin, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert admin: %w", err)
	}
	return true, nil
}

// folderNames draws n distinct "<kind> - <topic>" names.
func folderNames(rng *rand.Rand, n int) []string {
	total := len(dealKinds) * len(dealTopics)
	if n > total {
		n = total
	}
	names := make([]string, 0, n)
	for _, i := range rng.Perm(total)[:n] {
		names = append(names, dealKinds[i/len(dealTopics)]+" - "+dealTopics[i%len(dealTopics)])
	}
	return names
}
