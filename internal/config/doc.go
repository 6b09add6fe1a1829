// Package config loads the liveglobe service configuration from YAML and the
// process environment.
//
// Config fields:
//   - Server.HTTPPort          port for the API, /metrics and /ws/stream (default 8080)
//   - Server.RequestTimeout    per-request context bound; 0 disables it
//   - Warehouse.Driver         "databricks" (default), "postgres" or "sqlite"
//   - Warehouse.Host/HTTPPath  Databricks SQL warehouse address
//   - Warehouse.TokenEnv       env var holding the access token (default DATABRICKS_TOKEN)
//   - Warehouse.TokenSecret    AWS Secrets Manager id used when the env var is empty
//   - Warehouse.DSN            connection string for postgres and sqlite
//   - CORS.AllowedOrigin       Access-Control-Allow-Origin value (default "*")
//   - Live.Interval            WebSocket stats push interval (default 60s)
//   - Log.Level                debug | info | warn | error
//
// Load(path) applies defaults, unmarshals, applies environment overrides
// (DATABRICKS_HOST, DATABRICKS_HTTP_PATH, ALLOWED_ORIGIN, WAREHOUSE_DRIVER,
// WAREHOUSE_DSN, DATABRICKS_TOKEN_SECRET) and validates. LoadOrDefault does
// the same without requiring a file. Watch reloads on file changes.
package config
