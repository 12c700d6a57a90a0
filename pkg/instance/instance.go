package instance

import "os"

// GetID returns the process identifier used in logs. Heroku's DYNO wins,
// then WORKER_ID, then the host name.
func GetID(fallback string) string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallback
}
