// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent}: the `agent:` section parsed from YAML
//   - AgentConfig: server_endpoint, evaluate_interval, ship_interval,
//     buffer_size, history_size, scenario, sources [], server_auth, log_level
//   - Source: id, type (file|http|prometheus), path, endpoint, format, metric,
//     timeout, auth, tls
//   - AuthConfig: mode (mtls|apikey|bearer|basic|none), cert/key/ca files,
//     header, key_env, token_env, password_env; secrets resolve from the
//     environment
//
// Load(path) reads the YAML file, applies defaults (1m evaluate, 15s ship,
// 100 buffer, 500 history, 10%/10% scenario), then validates required fields
// and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It re-adds the watch after each
// event to survive the rename→create pattern of atomic-save editors.
package config
