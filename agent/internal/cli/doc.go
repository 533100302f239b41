// Package cli implements the decide command line.
//
// decide evaluate scores one metric of a dataset (--file, or "-" for stdin)
// and prints the decision as a styled table or, with --output json, as the
// wire Report. The what-if scenario is set with --drop and --variability.
//
// decide watch loads an agent config, evaluates every configured source on
// its interval and ships reports to the server. Without a server_endpoint
// the reports are printed as JSON lines instead. The config file is watched
// and reloaded on change. Secrets referenced by *_env keys may come from the
// --env-file dotenv file.
package cli
