// Package ws pushes live dashboard stats over WebSocket.
//
// New(source, interval, allowedOrigin) creates a Hub. Hub.Run(ctx) starts
// the refresh ticker and blocks until ctx is cancelled, then closes all
// connections. Hub.ServeHTTP upgrades a request, sends the current stats
// immediately and then one message per tick:
//
//	{
//	  "event": "stats",
//	  "data":  { /* same schema as GET /stats */ }
//	}
//
// A failed refresh is logged and that tick is skipped; clients keep the
// last payload they received. The server mounts the hub at /ws/stream.
package ws
