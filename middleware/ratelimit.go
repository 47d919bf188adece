package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
}

var (
	rlMu     sync.Mutex
	buckets  = map[string]*bucket{}
	window   = 10 * time.Second
	capacity = 5

	dupMu   sync.Mutex
	lastMsg = map[string]struct {
		text string
		ts   time.Time
	}{}
	dupTTL = 5 * time.Second

	slotMu sync.Mutex
	slots  = map[string]chan struct{}{}
)

func SetRateLimitConfig(win time.Duration, cap int) {
	rlMu.Lock()
	window = win
	capacity = cap
	rlMu.Unlock()
}

func SetDuplicateTTL(ttl time.Duration) {
	dupMu.Lock()
	dupTTL = ttl
	dupMu.Unlock()
}

func clientIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	return ip
}

// ClientKey identifies the caller: the token subject when the app lock is on,
// plus the client address.
func ClientKey(c *gin.Context) string {
	sub := c.GetString(ContextSubjectKey)
	return sub + "@" + clientIP(c)
}

// RateLimit is a token bucket per client, refilled over window.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientKey(c)
		now := time.Now()

		rlMu.Lock()
		b := buckets[key]
		if b == nil {
			b = &bucket{tokens: capacity, lastRefill: now}
			buckets[key] = b
		}
		if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
			add := int(float64(capacity) * (float64(elapsed) / float64(window)))
			if add > 0 {
				b.tokens = min(b.tokens+add, capacity)
				b.lastRefill = now
			}
		}
		if b.tokens <= 0 {
			rlMu.Unlock()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"msg": "too many requests"})
			return
		}
		b.tokens--
		rlMu.Unlock()

		c.Next()
	}
}

// DuplicateGuard reports false when key sent the same text within the TTL.
func DuplicateGuard(key string, text string) bool {
	now := time.Now()
	text = strings.TrimSpace(text)
	dupMu.Lock()
	defer dupMu.Unlock()
	entry, ok := lastMsg[key]
	if ok && entry.text == text && now.Sub(entry.ts) < dupTTL {
		return false
	}
	lastMsg[key] = struct {
		text string
		ts   time.Time
	}{text: text, ts: now}
	return true
}

// AcquireConversationSlot allows one active run per conversation in this
// process. ok is false when the slot is taken.
func AcquireConversationSlot(conversationID string) (release func(), ok bool) {
	slotMu.Lock()
	sem := slots[conversationID]
	if sem == nil {
		sem = make(chan struct{}, 1)
		slots[conversationID] = sem
	}
	slotMu.Unlock()
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, true
	default:
		return func() {}, false
	}
}
