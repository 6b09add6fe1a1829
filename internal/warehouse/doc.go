// Package warehouse is the data source gateway between the API and the SQL
// warehouse.
//
// New(cfg) returns a Gateway that owns one *sql.DB for the process lifetime.
// The handle is opened on first use (Connect, Query or Ping) and reused by
// every later call; concurrent callers share it. Supported drivers:
//
//	databricks  Databricks SQL warehouse (host, HTTP path, access token)
//	postgres    any Postgres-compatible warehouse through pgx
//	sqlite      local snapshot through modernc.org/sqlite
//
// Statements use ? placeholders; the gateway rewrites them for postgres.
// Every failure is a *DataSourceError matching ErrDataSource. Nothing is
// retried inside the gateway.
package warehouse
