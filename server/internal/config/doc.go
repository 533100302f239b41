// Package config loads the server-side configuration from the `server:` section
// of config.yaml (the `agent:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort         : port for the REST API, receiver and WebSocket hub (default 8080)
//   - Auth.Mode        : "apikey" or "none"
//   - Auth.KeyEnv      : environment variable holding the expected API key
//   - Auth.Header      : HTTP header name (default "X-API-Key")
//   - Snapshot.TTL     : how long a source's latest report remains live (default 5m)
//   - BroadcastInterval: WebSocket push interval (default 5s)
//   - RateLimit        : token bucket for POST /api/v1/evaluate (default 5/s, burst 10)
//   - Alerts           : rules over report fields and webhook targets
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
