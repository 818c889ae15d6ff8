package gatekeeper

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// errGatekeeperTransient marks failures the circuit breaker should
// count: transport errors and unexpected upstream statuses. Denials and
// inactive tokens are terminal answers, not outages.
var errGatekeeperTransient = crerr.New("gatekeeper transient failure")

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errGatekeeperTransient)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
