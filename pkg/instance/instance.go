package instance

import (
	"os"
	"strings"
)

// GetID returns an identifier for the running process, used to tell api
// replicas apart in logs.
func GetID() string {
	for _, key := range []string{"ORDERDESK_INSTANCE_ID", "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
