package otel

import (
	"context"
	"strconv"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"registration-backend/internal/audit"
	auditdomain "registration-backend/internal/audit/domain"
)

const auditLoggerName = "registration.audit"

// recordEmitter is the subset of otellog.Logger used by the mirror.
type recordEmitter interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewActionMirror returns an audit.Mirror that exports action entries as OTel log records via provider.
// If provider is nil, returns a no-op mirror.
func NewActionMirror(provider *sdklog.LoggerProvider) audit.Mirror {
	if provider == nil {
		return noopMirror{}
	}
	return &actionMirror{logger: provider.Logger(auditLoggerName)}
}

// NewActionMirrorWithLogger returns a mirror that emits to logger directly.
func NewActionMirrorWithLogger(logger recordEmitter) audit.Mirror {
	if logger == nil {
		return noopMirror{}
	}
	return &actionMirror{logger: logger}
}

type noopMirror struct{}

func (noopMirror) Mirror(context.Context, *auditdomain.ActionEntry) {}

type actionMirror struct {
	logger recordEmitter
}

// Mirror converts the entry to a log record. FAILED outcomes are emitted at WARN severity.
func (m *actionMirror) Mirror(ctx context.Context, e *auditdomain.ActionEntry) {
	if e == nil {
		return
	}
	rec := otellog.Record{}
	ts := e.PerformedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetBody(otellog.StringValue(string(e.ActionType) + " " + string(e.Outcome)))
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetSeverityText("INFO")
	if e.Outcome == auditdomain.OutcomeFailed {
		rec.SetSeverity(otellog.SeverityWarn)
		rec.SetSeverityText("WARN")
	}
	rec.AddAttributes(
		otellog.String("audit.id", e.ID),
		otellog.String("audit.action_type", string(e.ActionType)),
		otellog.String("audit.outcome", string(e.Outcome)),
		otellog.String("audit.actor_email", e.ActorEmail),
		otellog.String("audit.actor_role", e.ActorRole),
	)
	if e.TargetEmail != "" {
		rec.AddAttributes(otellog.String("audit.target_email", e.TargetEmail))
	}
	if e.TargetUserID != nil {
		rec.AddAttributes(otellog.String("audit.target_user_id", strconv.FormatInt(*e.TargetUserID, 10)))
	}
	if e.Reason != "" {
		rec.AddAttributes(otellog.String("audit.reason", e.Reason))
	}
	m.logger.Emit(ctx, rec)
}
