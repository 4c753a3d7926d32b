package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/orderdesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/logger"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 255

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold its key.
	pendingTTL = time.Minute
)

type idempotencyRule struct {
	method string
	match  func(path string) bool
	ttl    time.Duration
}

// Only creating writes are guarded; reads, updates and deletes are already
// safe to repeat.
var idempotencyRules = []idempotencyRule{
	{http.MethodPost, exactPath("/api/v1/users"), defaultIdempotencyTTL},
	{http.MethodPost, exactPath("/api/v1/addresses"), defaultIdempotencyTTL},
	{http.MethodPost, exactPath("/api/v1/products"), defaultIdempotencyTTL},
	{http.MethodPost, wrappedPath("/api/v1/products/", "/stock"), criticalIdempotencyTTL},
	{http.MethodPost, exactPath("/api/v1/orders"), criticalIdempotencyTTL},
}

// idempotencyRecord is what the store holds under a key. A record with
// Pending set marks a request that is still running.
type idempotencyRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type idempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Idempotency lets clients retry creating requests safely. The first request
// carrying an Idempotency-Key claims it, and later requests with the same key
// and body get the recorded response back. A different body, or a retry that
// arrives while the first request is still running, is rejected with 409.
// 5xx outcomes release the key so the request can be retried for real.
func Idempotency(store idempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	g := &idempotencyGuard{store: store, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			ttl, guarded := routeTTL(r.Method, requestPath(r))
			if !guarded || id == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			g.serve(w, r, next, id, ttl)
		})
	}
}

type idempotencyGuard struct {
	store idempotencyStore
	logg  *logger.Logger
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler, id string, ttl time.Duration) {
	ctx := r.Context()
	if len(id) > maxIdempotencyKey {
		responses.WriteError(ctx, g.logg, w, pkgerrors.OutOfRange(idempotencyHeader, 1, maxIdempotencyKey, len(id)))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := hashBody(body)
	key := g.store.IdempotencyKey(r.Method+"|"+requestPath(r), id)

	claim, _ := json.Marshal(idempotencyRecord{Pending: true, RequestHash: hash})
	claimed, err := g.store.SetNX(ctx, key, string(claim), pendingTTL)
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
		return
	}
	if !claimed {
		g.replay(w, r, key, hash)
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)

	// detached so a client hang-up cannot leave the key pending
	storeCtx := context.WithoutCancel(ctx)
	status := capture.statusCode()
	if status >= http.StatusInternalServerError {
		if err := g.store.Del(storeCtx, key); err != nil {
			g.logError(storeCtx, "idempotency.release_failed", err)
		}
		return
	}

	record, _ := json.Marshal(idempotencyRecord{
		RequestHash: hash,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	})
	if err := g.store.Set(storeCtx, key, string(record), ttl); err != nil {
		g.logError(storeCtx, "idempotency.persist_failed", err)
	}
}

func (g *idempotencyGuard) replay(w http.ResponseWriter, r *http.Request, key, hash string) {
	ctx := r.Context()
	stored, err := g.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// the first request failed and released the key between our claim and read
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotent request was released; retry"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}

	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != hash {
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if record.Pending {
		responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this idempotency key is still in progress"))
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(record.Body)
}

func (g *idempotencyGuard) logError(ctx context.Context, msg string, err error) {
	if g.logg == nil {
		return
	}
	g.logg.Error(ctx, msg, err)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// requestPath is the concrete path without a trailing slash. Route patterns
// are not resolved yet when this middleware runs on a parent router.
func requestPath(r *http.Request) string {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		return "/"
	}
	return path
}

func routeTTL(method, path string) (time.Duration, bool) {
	for _, rule := range idempotencyRules {
		if rule.method == method && rule.match(path) {
			return rule.ttl, true
		}
	}
	return 0, false
}

func exactPath(want string) func(string) bool {
	return func(path string) bool { return path == want }
}

func wrappedPath(prefix, suffix string) func(string) bool {
	return func(path string) bool {
		return len(path) > len(prefix)+len(suffix) &&
			strings.HasPrefix(path, prefix) && strings.HasSuffix(path, suffix)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
