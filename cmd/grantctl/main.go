// Command grantctl mints a pro tier token in the configured record store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IgorGrieder/tempqr/internal/config"
	"github.com/IgorGrieder/tempqr/internal/infrastructure/db"
	"github.com/IgorGrieder/tempqr/internal/processing/policy"
	mongoStorage "github.com/IgorGrieder/tempqr/internal/storage/mongo"
	postgresStorage "github.com/IgorGrieder/tempqr/internal/storage/postgres"
)

type grantSaver interface {
	Save(ctx context.Context, g *policy.Grant) (*policy.Grant, error)
}

func main() {
	tier := flag.Int("tier", 1, "paid tier (1, 2 or 3)")
	session := flag.String("session", "", "checkout session id; reissuing the same session returns the stored token")
	userID := flag.String("user", "", "bind the token to this account id")
	flag.Parse()

	if err := run(*tier, *session, *userID); err != nil {
		fmt.Fprintf(os.Stderr, "grantctl: %v\n", err)
		os.Exit(1)
	}
}

func run(tier int, session, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, err := policy.IssueGrant(tier, strings.TrimSpace(session), time.Now())
	if err != nil {
		return err
	}
	g.UserID = strings.TrimSpace(userID)

	saver, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	stored, err := saver.Save(ctx, g)
	if err != nil {
		return fmt.Errorf("save grant: %w", err)
	}

	expires := "never"
	if stored.ExpiresAt != nil {
		expires = stored.ExpiresAt.Format(time.RFC3339)
	}
	fmt.Printf("token=%s tier=%d expires=%s\n", stored.Token, stored.Tier, expires)
	return nil
}

func openStore(ctx context.Context) (grantSaver, func(), error) {
	if strings.ToLower(config.GetEnv("STORE_DRIVER", "mongo")) == "postgres" {
		pgConn, err := db.ConnectPostgres(ctx, config.GetEnv("POSTGRES_DSN", config.DefaultPostgresDSN()))
		if err != nil {
			return nil, nil, err
		}
		if err := postgresStorage.Migrate(ctx, pgConn); err != nil {
			pgConn.Close()
			return nil, nil, err
		}
		repo, err := postgresStorage.NewGrantsRepository(pgConn)
		if err != nil {
			pgConn.Close()
			return nil, nil, err
		}
		return repo, pgConn.Close, nil
	}

	mongoConn, err := db.ConnectMongo(
		config.GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
		config.GetEnv("MONGODB_DATABASE", "tempqr"),
	)
	if err != nil {
		return nil, nil, err
	}
	repo, err := mongoStorage.NewGrantsRepository(mongoConn)
	if err != nil {
		_ = mongoConn.Disconnect()
		return nil, nil, err
	}
	return repo, func() { _ = mongoConn.Disconnect() }, nil
}
