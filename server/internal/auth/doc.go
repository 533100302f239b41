// Package auth provides HTTP authentication middleware for the decision
// server.
//
// APIKey(mode, header, key) wraps a handler so that every request must carry
// key in the named header. When mode != "apikey" or key == "", all requests
// pass through (useful for local development with auth disabled). A missing
// or wrong key is answered with 401 and a JSON error body.
package auth
