package audit

import (
	"context"
	"recoverme/internal/core/domain/audit"
	e "recoverme/internal/core/domain/errors"
	"recoverme/internal/core/domain/logging"
	"recoverme/internal/db"
)

// PgxAuditLog writes audit events to password_reset_audit. A failed insert
// never fails the caller, the event goes to the structured log instead.
type PgxAuditLog struct {
	db  db.DBTX
	log logging.Logger
}

func NewPgxAuditLog(db db.DBTX, log logging.Logger) *PgxAuditLog {
	if db == nil {
		panic(e.NewNilArgumentError("db"))
	}
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	return &PgxAuditLog{db: db, log: log}
}

const insertEvent = `
INSERT INTO password_reset_audit (event_type, scope, scope_key, outcome, occurred_at)
VALUES ($1, $2, $3, $4, $5)
`

func (a *PgxAuditLog) Record(ctx context.Context, event audit.Event) {
	_, err := a.db.Exec(
		ctx,
		insertEvent,
		string(event.Type),
		event.Scope,
		event.ScopeKey,
		string(event.Outcome),
		event.OccurredAt,
	)
	if err == nil {
		return
	}
	a.log.Warning(
		ctx,
		"Could not persist audit event.",
		logging.Entry("type", event.Type),
		logging.Entry("scope", event.Scope),
		logging.Entry("scopeKey", event.ScopeKey),
		logging.Entry("outcome", event.Outcome),
		logging.Entry("occurredAt", event.OccurredAt),
		logging.Entry("err", err),
	)
}
