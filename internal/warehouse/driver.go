package warehouse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	dbsql "github.com/databricks/databricks-sql-go"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // register sqlite as a database/sql driver

	"github.com/liveglobe/liveglobe/internal/config"
)

const databricksPort = 443

// SecretFetcher returns the plaintext value of a secret by id.
type SecretFetcher func(ctx context.Context, id string) (string, error)

// sqlOpen is swapped in tests that exercise the driver switch.
var sqlOpen = sql.Open

// openDriver opens a handle for cfg.Driver without pinging it.
func openDriver(ctx context.Context, cfg config.WarehouseConfig, fetch SecretFetcher) (*sql.DB, error) {
	switch cfg.Driver {
	case "databricks":
		return openDatabricks(ctx, cfg, fetch)
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("postgres: dsn is required")
		}
		return sqlOpen("pgx", cfg.DSN)
	case "sqlite":
		if cfg.DSN == "" {
			return nil, errors.New("sqlite: dsn is required")
		}
		db, err := sqlOpen("sqlite", cfg.DSN)
		if err != nil {
			return nil, err
		}
		// ATTACH and :memory: are per connection, so pin the pool to one.
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func openDatabricks(ctx context.Context, cfg config.WarehouseConfig, fetch SecretFetcher) (*sql.DB, error) {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cfg.Host), "https://"), "/")
	if host == "" {
		return nil, errors.New("databricks: host is required")
	}
	if strings.TrimSpace(cfg.HTTPPath) == "" {
		return nil, errors.New("databricks: http path is required")
	}

	token, err := resolveToken(ctx, cfg, fetch)
	if err != nil {
		return nil, err
	}

	connector, err := dbsql.NewConnector(
		dbsql.WithServerHostname(host),
		dbsql.WithPort(databricksPort),
		dbsql.WithHTTPPath(cfg.HTTPPath),
		dbsql.WithAccessToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("databricks: build connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// resolveToken prefers the token environment variable and falls back to
// the configured secret.
func resolveToken(ctx context.Context, cfg config.WarehouseConfig, fetch SecretFetcher) (string, error) {
	if t := cfg.Token(); t != "" {
		return t, nil
	}
	if cfg.TokenSecret == "" {
		return "", ErrMissingCredentials
	}
	if fetch == nil {
		fetch = awsSecret
	}
	raw, err := fetch(ctx, cfg.TokenSecret)
	if err != nil {
		return "", fmt.Errorf("fetch secret %q: %w", cfg.TokenSecret, err)
	}
	token := secretToken(raw)
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

// secretToken accepts either a bare token or a JSON object with a "token" key.
func secretToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var obj struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			return strings.TrimSpace(obj.Token)
		}
	}
	return raw
}

func awsSecret(ctx context.Context, id string) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	out, err := secretsmanager.NewFromConfig(awsCfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", err
	}
	if out.SecretString == nil {
		return "", errors.New("secret has no string value")
	}
	return aws.ToString(out.SecretString), nil
}

// rebindDollar rewrites ? placeholders to $1..$n, leaving quoted text alone.
func rebindDollar(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inString = !inString
			b.WriteByte(ch)
		case ch == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
