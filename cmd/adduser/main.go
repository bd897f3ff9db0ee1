package main

import (
	"bufio"   // Line input
	"context" // Store calls
	"errors"  // Error inspection
	"flag"    // Command-line flags
	"fmt"     // Output
	"io"      // Streams
	"os"      // Process I/O
	"strings" // Input normalisation

	"finance_tracker/internal/apperr" // Error taxonomy
	"finance_tracker/internal/auth"   // Registration rules
	"finance_tracker/internal/config" // Environment defaults
	"finance_tracker/internal/db"     // Database connection and migration
	"finance_tracker/internal/domain" // Roles

	"golang.org/x/term" // Password prompt
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	admin := fs.Bool("admin", false, "Grant the admin role")
	driver := fs.String("driver", "", "Database driver, mysql or sqlite (defaults to DB_DRIVER)")
	dsn := fs.String("dsn", "", "Data source name (defaults to the DB_* settings)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *name == "" || *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -name <name> -email <email> [-password <password>] [-admin] [-driver <driver>] [-dsn <dsn>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: name, email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // Print newline after password input
	}

	// Flags win over the environment
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if *driver != "" {
		cfg.DBDriver = strings.ToLower(*driver)
	}
	source := cfg.DSN()
	if *dsn != "" {
		source = *dsn
	}

	gdb, err := db.Open(cfg.DBDriver, source)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	role := domain.RoleUser
	if *admin {
		role = domain.RoleAdmin
	}

	// The gateway applies the same rules as the register endpoint; no tokens are issued here
	gw := auth.NewGateway(db.NewUserStore(gdb), "", cfg.TokenTTL)
	user, err := gw.Register(context.Background(), auth.RegisterInput{Name: *name, Email: *email, Password: password, Role: role})
	if err != nil {
		if e := apperr.As(err); e.Kind == apperr.KindValidation {
			return errors.New(e.Message)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s and role %s\n", user.Email, user.ID, user.Role)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
