package provision

import (
	"fmt"
	"log"
	"strings"
)

// wellKnownSuffix is the OIDC discovery path every valid discovery URL
// must end with.
const wellKnownSuffix = "/.well-known/openid-configuration"

// AuthorizerConfig associates the app client with the pool's OIDC
// discovery document. It is handed to the runtime toolchain at
// configure time.
type AuthorizerConfig struct {
	ClientID     string
	DiscoveryURL string
}

// deriveDiscoveryURL builds the canonical discovery URL from the pool
// id and region.
func deriveDiscoveryURL(region, poolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s%s", region, poolID, wellKnownSuffix)
}

// validDiscoveryURL reports whether url has the expected well-known
// shape. Recorded values occasionally come back with embedded JSON from
// older tooling, which must never reach the authorizer.
func validDiscoveryURL(url string) bool {
	return strings.HasPrefix(url, "https://") &&
		strings.HasSuffix(url, wellKnownSuffix) &&
		!strings.ContainsAny(url, "{}\" ")
}

// repairDiscoveryURL returns url if it is already well-formed, or
// reconstructs the canonical form from pool id and region. The repaired
// value is re-validated; a value that cannot be repaired is a fatal
// configuration error.
func repairDiscoveryURL(url, region, poolID string) (string, error) {
	if validDiscoveryURL(url) {
		return url, nil
	}

	log.Printf("provision: discovery URL %q is malformed, reconstructing from pool id", truncate(url, 60))
	rebuilt := deriveDiscoveryURL(region, poolID)
	if !validDiscoveryURL(rebuilt) {
		return "", &ProvisionError{
			Category:  ErrCategoryConfiguration,
			Operation: "validate",
			Resource:  "discovery_url",
			Message:   fmt.Sprintf("reconstructed discovery URL %q is still malformed", rebuilt),
		}
	}
	return rebuilt, nil
}

// truncate shortens s for log lines.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
