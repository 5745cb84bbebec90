package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/database"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/rbac"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type SeedData struct {
	Users []User `yaml:"users"`
}

type User struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("command required")
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		return seedCommand(args)
	case "migrate":
		return migrateCommand()
	case "nuke":
		return nukeCommand(args)
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func seedCommand(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "YAML file to seed from")
	dir := fs.String("dir", "", "Directory of YAML files to seed from")
	dryRun := fs.Bool("dry-run", false, "Validate files without making database changes")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		return err
	}

	seedData, err := loadSeedData(files)
	if err != nil {
		return fmt.Errorf("failed to load seed data: %w", err)
	}

	if *dryRun {
		fmt.Println("dry run: validating data structure")
		return validateSeedData(seedData)
	}

	if err := validateSeedData(seedData); err != nil {
		return err
	}

	seedDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer seedDB.Close()

	fmt.Printf("seeding database from %d file(s)\n", len(files))
	return applySeedData(context.Background(), seedDB.Queries(), seedData)
}

func migrateCommand() error {
	seedDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer seedDB.Close()

	fmt.Println("applying migrations...")
	if err := seedDB.Migrate(); err != nil {
		return err
	}
	fmt.Println("migrations applied")
	return nil
}

func openDatabase() (*database.Database, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	seedDB, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return seedDB, nil
}

func nukeCommand(args []string) error {
	fs := flag.NewFlagSet("nuke", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if !*force && !confirmNuke() {
		fmt.Println("operation cancelled")
		return nil
	}

	return nukeDatabase()
}

func resolveFiles(file, dir string) ([]string, error) {
	if file == "" && dir == "" {
		return nil, errors.New("must specify either --file or --dir")
	}

	if file != "" && dir != "" {
		return nil, errors.New("cannot specify both --file and --dir")
	}

	if file != "" {
		return []string{file}, nil
	}

	return findYAMLFiles(dir)
}

func findYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && isYAMLFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in directory: %s", dir)
	}

	return files, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadSeedData(files []string) (*SeedData, error) {
	combined := &SeedData{}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}

		var fileData SeedData
		if err := yaml.Unmarshal(data, &fileData); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", file, err)
		}

		// Combine data from all files
		combined.Users = append(combined.Users, fileData.Users...)
	}

	return combined, nil
}

func validateSeedData(data *SeedData) error {
	seen := make(map[string]bool, len(data.Users))
	for i, u := range data.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		switch {
		case email == "":
			return fmt.Errorf("user %d: email is required", i)
		case u.Password == "":
			return fmt.Errorf("user %s: password is required", email)
		case !knownRoles[u.Role]:
			return fmt.Errorf("user %s: unknown role %q", email, u.Role)
		case seen[email]:
			return fmt.Errorf("user %s: listed more than once", email)
		}
		seen[email] = true
	}

	fmt.Printf("  Users: %d\n", len(data.Users))
	fmt.Println("data structure is valid")
	return nil
}

var knownRoles = map[string]bool{
	rbac.RoleAdmin:  true,
	rbac.RoleEditor: true,
	rbac.RoleViewer: true,
}

func applySeedData(ctx context.Context, queries *db.Queries, data *SeedData) error {
	roleIDs := make(map[string]int64)
	for _, user := range data.Users {
		roleID, ok := roleIDs[user.Role]
		if !ok {
			role, err := queries.GetRoleByName(ctx, user.Role)
			if err != nil {
				return fmt.Errorf("failed to load role %s: %w", user.Role, err)
			}
			roleID = role.ID
			roleIDs[user.Role] = roleID
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", user.Email, err)
		}

		params := db.CreateUserParams{
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			Email:        strings.ToLower(strings.TrimSpace(user.Email)),
			PasswordHash: string(hashedPassword),
			RoleID:       roleID,
		}
		if _, err := queries.CreateUser(ctx, params); err != nil {
			return fmt.Errorf("failed to create user %s: %w", user.Email, err)
		}
		fmt.Printf("created user: %s (%s)\n", user.Email, user.Role)
	}

	fmt.Println("seeding completed")
	return nil
}

func nukeDatabase() error {
	seedDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer seedDB.Close()

	fmt.Println("resetting database with goose...")
	if err := seedDB.Reset(); err != nil {
		return err
	}

	fmt.Println("database reset complete - ready for seeding")
	return nil
}

func confirmNuke() bool {
	fmt.Print("warning: this will delete all data from the database. are you sure? (yes/no): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	return strings.ToLower(strings.TrimSpace(response)) == "yes"
}

func printUsage() {
	fmt.Println("Seeder Tool - Database seeding utility for the document gateway")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  seeder <command> [flags]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  seed        Seed users from YAML files")
	fmt.Println("  migrate     Apply pending migrations")
	fmt.Println("  nuke        Roll back and re-apply all migrations")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("SEED FLAGS:")
	fmt.Println("  --file      Path to a single YAML file")
	fmt.Println("  --dir       Path to directory containing YAML files")
	fmt.Println("  --dry-run   Validate files without making database changes")
	fmt.Println()
	fmt.Println("NUKE FLAGS:")
	fmt.Println("  --force     Skip confirmation prompt")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  seeder seed --file dev-data.yaml")
	fmt.Println("  seeder seed --dir ./seed-data/")
	fmt.Println("  seeder seed --dir ./seed-data/ --dry-run")
	fmt.Println("  seeder migrate")
	fmt.Println("  seeder nuke")
	fmt.Println("  seeder nuke --force")
}
