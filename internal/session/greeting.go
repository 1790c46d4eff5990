package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"registration-backend/internal/session/domain"
)

const (
	firstLoginMessage     = "Welcome! This is your first login to the system."
	sessionTimeoutMessage = "Welcome back! Your last session ended without a proper logout."
)

// BuildGreeting classifies the login at currentLogin for email. It must be called after the LOGIN
// entry for that login was recorded. Lookup failures degrade to SESSION_TIMEOUT.
func (l *AuditLog) BuildGreeting(ctx context.Context, email string, currentLogin time.Time) domain.Greeting {
	logins, err := l.repo.ListByEmailAndKind(ctx, email, domain.KindLogin)
	if err != nil {
		log.Printf("session audit: greeting lookup failed for %q: %v", email, err)
		return timeoutGreeting()
	}
	if len(logins) <= 1 {
		return domain.Greeting{Kind: domain.GreetingFirstLogin, Message: firstLoginMessage}
	}

	logout, err := l.repo.LatestByEmailAndKind(ctx, email, domain.KindLogout)
	if err != nil {
		log.Printf("session audit: greeting lookup failed for %q: %v", email, err)
		return timeoutGreeting()
	}
	if logout == nil {
		return timeoutGreeting()
	}
	at := logout.EventTime
	elapsed := FormatElapsed(currentLogin.Sub(at))
	return domain.Greeting{
		Kind:         domain.GreetingNormal,
		Message:      fmt.Sprintf("Welcome back! You last logged out %s.", elapsed),
		LastLogoutAt: &at,
		Elapsed:      elapsed,
	}
}

func timeoutGreeting() domain.Greeting {
	return domain.Greeting{Kind: domain.GreetingSessionTimeout, Message: sessionTimeoutMessage}
}

// FormatElapsed renders d in whole minutes as "2 days 3 hours 5 minutes ago", omitting zero
// components. Minutes are always shown when there are no days or hours. Negative durations count as zero.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := total % (24 * 60) / 60
	minutes := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, unit(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, unit(hours, "hour"))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, unit(minutes, "minute"))
	}
	return strings.Join(parts, " ") + " ago"
}

func unit(n int64, name string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", name)
	}
	return fmt.Sprintf("%d %ss", n, name)
}
