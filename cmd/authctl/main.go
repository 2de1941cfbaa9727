package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"userauth/internal/domain"
	"userauth/internal/events"
	"userauth/internal/identity"
	impl "userauth/internal/service/impl"
	"userauth/internal/store"
	"userauth/pkg/db"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "migrate":
		err = runMigrate(args)
	case "import":
		err = runImport(args)
	case "purge-blacklist":
		err = runPurge(args)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  migrate           Create or update the database schema")
	fmt.Fprintln(os.Stderr, "  import            Import users with Django pbkdf2 password hashes (JSON lines)")
	fmt.Fprintln(os.Stderr, "  purge-blacklist   Delete blacklist entries whose tokens have expired")
	os.Exit(2)
}

func openStore(dsn string) (*store.Store, error) {
	gdb, err := db.OpenGorm(db.Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	return store.New(gdb), nil
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dsn := fs.String("db", getenv("DATABASE_URL", "userauth.db"), "database URL or sqlite path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := openStore(*dsn)
	if err != nil {
		return err
	}
	if err := st.Migrate(context.Background()); err != nil {
		return err
	}
	return printJSON(map[string]string{"status": "migrated"})
}

// legacyUser is one line of an export from the previous system.
type legacyUser struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"` // pbkdf2_sha256$<iter>$<salt>$<hash>
}

func readLegacyUsers(r io.Reader) ([]legacyUser, error) {
	var out []legacyUser
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var u legacyUser
		if err := json.Unmarshal([]byte(text), &u); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("line %d: email and password are required", line)
		}
		if u.FullName == "" {
			u.FullName = u.Username
		}
		out = append(out, u)
	}
	return out, sc.Err()
}

type importResult struct {
	Imported int               `json:"imported"`
	Skipped  map[string]string `json:"skipped,omitempty"`
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dsn := fs.String("db", getenv("DATABASE_URL", "userauth.db"), "database URL or sqlite path")
	file := fs.String("file", "-", "JSON lines file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	users, err := readLegacyUsers(in)
	if err != nil {
		return err
	}

	st, err := openStore(*dsn)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	res, err := importUsers(ctx, st, users)
	if err != nil {
		return err
	}
	return printJSON(res)
}

// importUsers writes each user in its own transaction. Duplicates and bad
// hashes are reported and skipped; anything else aborts the run.
func importUsers(ctx context.Context, st *store.Store, users []legacyUser) (importResult, error) {
	profiles := impl.NewProfileSync(impl.ProfileConfig{})
	identities := impl.NewIdentityServiceImpl(st, identity.NewNormalizer(identity.Config{}), profiles, events.Nop)
	as := impl.NewAuthServiceImpl(identities, impl.NewPasswordServiceArgon2id(), impl.NewPasswordPolicy(), nil)

	res := importResult{Skipped: map[string]string{}}
	for _, u := range users {
		_, err := as.ImportLegacyUser(ctx, u.Email, u.FullName, u.Password)
		var dup *domain.DuplicateIdentityError
		switch {
		case err == nil:
			res.Imported++
		case errors.As(err, &dup),
			errors.Is(err, domain.ErrInvalidEmailFormat),
			errors.Is(err, domain.ErrFieldTooLong),
			errors.Is(err, impl.ErrMalformedHash),
			errors.Is(err, impl.ErrUnsupportedHash):
			res.Skipped[u.Email] = err.Error()
		default:
			return res, fmt.Errorf("import %s: %w", u.Email, err)
		}
	}
	return res, nil
}

func runPurge(args []string) error {
	fs := flag.NewFlagSet("purge-blacklist", flag.ContinueOnError)
	dsn := fs.String("db", getenv("DATABASE_URL", "userauth.db"), "database URL or sqlite path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := openStore(*dsn)
	if err != nil {
		return err
	}
	n, err := st.Blacklist().PurgeExpired(context.Background(), time.Now().UTC())
	if err != nil {
		return err
	}
	return printJSON(map[string]int64{"purged": n})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
