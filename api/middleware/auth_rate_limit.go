package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dutta2005/Medi-Track/api/responses"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/security"
)

// Auth bodies are tiny; anything bigger is not a credential payload.
const maxAuthBody = 16 << 10

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthRateLimitPolicy throttles one auth surface (login, register) per client
// IP and per hashed email inside a fixed window.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// rateCounter is one fixed-window bucket a request is charged against.
type rateCounter struct {
	scope string
	key   string
	limit int
	field string
	value string
}

func (p AuthRateLimitPolicy) ipCounter(store rateLimiterStore, r *http.Request) (rateCounter, bool) {
	ip := clientIP(r)
	if p.ipLimit <= 0 || ip == "" {
		return rateCounter{}, false
	}
	return rateCounter{scope: "ip", key: store.RateLimitKey("ip:" + p.name + ":" + ip), limit: p.ipLimit, field: "ip", value: ip}, true
}

func (p AuthRateLimitPolicy) emailCounter(store rateLimiterStore, body []byte) (rateCounter, bool) {
	email := extractEmail(body)
	if p.emailLimit <= 0 || email == "" {
		return rateCounter{}, false
	}
	hash := security.HashIdentifier(email)
	return rateCounter{scope: "email", key: store.RateLimitKey("email:" + p.name + ":" + hash), limit: p.emailLimit, field: "email_hash", value: hash}, true
}

// AuthRateLimit charges the request against the policy's IP counter, then its
// email counter, and answers 429 with Retry-After once either is exhausted.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			counters := make([]rateCounter, 0, 2)
			if c, ok := policy.ipCounter(store, r); ok {
				counters = append(counters, c)
			}
			if policy.emailLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if c, ok := policy.emailCounter(store, body); ok {
					counters = append(counters, c)
				}
			}

			for _, c := range counters {
				count, err := store.IncrWithTTL(ctx, c.key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(c.limit) {
					rejectRateLimited(ctx, logg, w, policy, c, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, c rateCounter, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"scope":          c.scope,
			"policy":         policy.name,
			"attempts":       count,
			"limit":          c.limit,
			"window_seconds": int(policy.window.Seconds()),
			c.field:          c.value,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Email)
}
