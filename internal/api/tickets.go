package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tetherhq/tether-core/internal/infrastructure/config"
)

// defaultTicketTTL applies when the configured TTL is missing or invalid.
const defaultTicketTTL = 60 * time.Second

// ticketIssuer mints and validates short-lived WebSocket tickets.
//
// Tickets are HS256-signed JWTs carrying a unique jti claim. Validation is
// stateless apart from the consumed-jti set, which enforces single use: a
// ticket sniffed from a URL cannot open a second connection.
type ticketIssuer struct {
	secret []byte
	ttl    time.Duration

	mu       sync.Mutex
	consumed map[string]time.Time // jti -> ticket expiry
}

func newTicketIssuer(cfg config.TicketConfig) *ticketIssuer {
	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	return &ticketIssuer{
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
		consumed: make(map[string]time.Time),
	}
}

// Issue creates a signed ticket valid for the configured TTL.
func (t *ticketIssuer) Issue() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti": uuid.NewString(),
		"sub": "ws",
		"iat": now.Unix(),
		"exp": now.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing ticket: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry, then consumes the ticket's jti.
// A ticket validates exactly once.
func (t *ticketIssuer) Validate(ticket string) bool {
	parsed, err := jwt.Parse(ticket, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, used := t.consumed[jti]; used {
		return false
	}
	t.consumed[jti] = time.Now().Add(t.ttl)
	return true
}

// clean drops consumed entries whose tickets have expired anyway.
func (t *ticketIssuer) clean() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for jti, expiry := range t.consumed {
		if now.After(expiry) {
			delete(t.consumed, jti)
		}
	}
}

// cleanLoop prunes the consumed set periodically until the context is cancelled.
func (t *ticketIssuer) cleanLoop(ctx context.Context) {
	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.clean()
		}
	}
}

// handleWSTicket generates a single-use WebSocket authentication ticket.
// The client uses this ticket to authenticate the WebSocket connection
// without long-lived credentials appearing in the URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, _ *http.Request) {
	ticket, err := s.tickets.Issue()
	if err != nil {
		writeInternalError(w, "failed to generate ticket")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(s.tickets.ttl.Seconds()),
	})
}
