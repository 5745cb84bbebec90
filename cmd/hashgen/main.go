// Command hashgen creates an account directly in the database, for
// bootstrapping environments before any admin can log in.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/database"
)

func main() {
	first := flag.String("first", "Bootstrap", "first name")
	last := flag.String("last", "User", "last name")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-first NAME] [-last NAME] <email> <password> <role>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s admin@example.com mypassword Admin\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Arg(1), flag.Arg(2), *first, *last); err != nil {
		fmt.Fprintf(os.Stderr, "hashgen: %v\n", err)
		os.Exit(1)
	}
}

func run(email, password, roleName, first, last string) error {
	if n := len(password); n < 8 || n > 72 {
		return errors.New("password must be between 8 and 72 bytes")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	role, err := store.Queries().GetRoleByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("unknown role %q: %w", roleName, err)
	}

	tokens, err := auth.NewJWTService([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		return err
	}

	user, _, err := auth.NewAuthService(store.Queries(), tokens, nil).Register(ctx, auth.RegisterParams{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  password,
		RoleID:    &role.ID,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("User created: %s (id %d, role %s)\n", user.Email, user.ID, role.Name)
	return nil
}
