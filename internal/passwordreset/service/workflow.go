// Package service runs the support-mediated password reset workflow. A user raises a request,
// a SUPPORT or SUPER_ADMIN operator accepts it (generating a temporary credential) and then sends
// it, which replaces the user's password.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"registration-backend/internal/apperr"
	"registration-backend/internal/audit"
	auditdomain "registration-backend/internal/audit/domain"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/passwordreset/domain"
	resetrepo "registration-backend/internal/passwordreset/repository"
	"registration-backend/internal/platform/rbac"
	policydomain "registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/engine"
	"registration-backend/internal/security"
	"registration-backend/internal/telemetry/metrics"
)

// IdentityRepo is the minimal identity repository needed by the workflow.
type IdentityRepo interface {
	GetByEmail(ctx context.Context, email string) (*identitydomain.Identity, error)
}

// Deliverer hands a temporary password to its owner once it has been set.
type Deliverer interface {
	Deliver(ctx context.Context, email, tempPassword string) error
}

// LogDeliverer records that a credential was issued without logging the credential itself.
type LogDeliverer struct{}

func (LogDeliverer) Deliver(ctx context.Context, email, tempPassword string) error {
	log.Printf("passwordreset: temporary password issued email=%s", email)
	return nil
}

// Workflow implements raise, accept, send and list for password reset requests.
type Workflow struct {
	identities IdentityRepo
	requests   resetrepo.Repository
	hasher     *security.Hasher
	authz      engine.Authorizer
	audit      audit.ActionRecorder
	deliverer  Deliverer
	generate   func() (string, error)
	now        func() time.Time
}

// NewWorkflow returns a Workflow with the given dependencies. A nil deliverer means LogDeliverer.
func NewWorkflow(
	identities IdentityRepo,
	requests resetrepo.Repository,
	hasher *security.Hasher,
	authz engine.Authorizer,
	recorder audit.ActionRecorder,
	deliverer Deliverer,
) *Workflow {
	if deliverer == nil {
		deliverer = LogDeliverer{}
	}
	return &Workflow{
		identities: identities,
		requests:   requests,
		hasher:     hasher,
		authz:      authz,
		audit:      recorder,
		deliverer:  deliverer,
		generate:   security.GenerateTemporaryPassword,
		now:        time.Now,
	}
}

// Raise opens a REQUESTED reset for the identity registered under email. It needs no caller.
func (w *Workflow) Raise(ctx context.Context, email string) (*domain.Request, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperr.BadRequest("email is required")
	}
	ident, err := w.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, apperr.NotFound("user not found")
	}
	req := &domain.Request{
		IdentityID:  ident.ID,
		Email:       ident.Email,
		Status:      domain.StatusRequested,
		RequestedAt: w.now().UTC(),
	}
	if err := w.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	metrics.PasswordResetTransition(string(domain.StatusRequested))
	log.Printf("passwordreset: request raised id=%d email=%s", req.ID, req.Email)
	return req, nil
}

// Accept generates the temporary credential and moves the request to ACCEPTED. The caller is
// recorded as approver.
func (w *Workflow) Accept(ctx context.Context, id int64) (*domain.Request, error) {
	caller, err := rbac.RequireAction(ctx, w.authz, policydomain.ActionPasswordReset)
	if err != nil {
		return nil, err
	}
	req, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransitionTo(domain.StatusAccepted) {
		return nil, apperr.InvalidState("request already processed")
	}
	plain, err := w.generate()
	if err != nil {
		return nil, err
	}
	hash, err := w.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}
	now := w.now().UTC()
	req.TempPasswordPlain = plain
	req.TempPasswordHash = hash
	req.ApprovedBy = caller.Email
	req.ApprovedAt = &now
	req.Status = domain.StatusAccepted
	if err := w.requests.UpdateIfStatus(ctx, req, domain.StatusRequested); err != nil {
		if errors.Is(err, resetrepo.ErrStatusMismatch) {
			return nil, apperr.InvalidState("request already processed")
		}
		return nil, err
	}
	metrics.PasswordResetTransition(string(domain.StatusAccepted))
	log.Printf("passwordreset: request accepted id=%d approved_by=%s", req.ID, caller.Email)
	return req, nil
}

// Send sets the identity's password to the accepted credential, clears the stored plaintext and
// moves the request to PASSWORD_SENT. Every attempt is written to the action audit, including
// ones rejected by the role check; failures are also returned.
func (w *Workflow) Send(ctx context.Context, id int64) (*domain.Request, error) {
	if _, err := rbac.RequireAction(ctx, w.authz, policydomain.ActionPasswordReset); err != nil {
		w.audit.RecordFailure(ctx, auditdomain.ActionPasswordReset, "", nil, apperr.Message(err))
		return nil, err
	}
	req, err := w.load(ctx, id)
	if err != nil {
		w.audit.RecordFailure(ctx, auditdomain.ActionPasswordReset, "", nil, apperr.Message(err))
		return nil, err
	}
	plain, err := w.send(ctx, req)
	if err != nil {
		w.audit.RecordFailure(ctx, auditdomain.ActionPasswordReset, req.Email, &req.IdentityID, apperr.Message(err))
		log.Printf("passwordreset: send failed id=%d: %v", id, err)
		return nil, err
	}
	w.audit.RecordAction(ctx, auditdomain.ActionPasswordReset, auditdomain.OutcomeSuccess, req.Email, &req.IdentityID,
		audit.Snapshot(map[string]string{"status": string(domain.StatusAccepted)}),
		audit.Snapshot(map[string]string{"status": string(domain.StatusPasswordSent)}),
		"support reset password")
	metrics.PasswordResetTransition(string(domain.StatusPasswordSent))

	if err := w.deliverer.Deliver(ctx, req.Email, plain); err != nil {
		log.Printf("passwordreset: delivery failed id=%d email=%s: %v", req.ID, req.Email, err)
	}
	return req, nil
}

func (w *Workflow) send(ctx context.Context, req *domain.Request) (string, error) {
	if !req.Status.CanTransitionTo(domain.StatusPasswordSent) {
		return "", apperr.InvalidState("request not accepted yet")
	}
	if req.TempPasswordHash == "" {
		return "", apperr.InvalidState("request has no temporary password")
	}
	plain := req.TempPasswordPlain
	now := w.now().UTC()
	req.TempPasswordPlain = ""
	req.Status = domain.StatusPasswordSent
	req.PasswordSentAt = &now
	if err := w.requests.CompleteIfStatus(ctx, req, domain.StatusAccepted); err != nil {
		if errors.Is(err, resetrepo.ErrStatusMismatch) {
			return "", apperr.InvalidState("request not accepted yet")
		}
		return "", err
	}
	return plain, nil
}

// List returns every reset request, newest first. Temporary passwords are never included. ADMIN may
// view the list but not act on it.
func (w *Workflow) List(ctx context.Context) ([]*domain.Request, error) {
	if _, err := rbac.RequireAction(ctx, w.authz, policydomain.ActionPasswordResetView); err != nil {
		return nil, err
	}
	list, err := w.requests.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		r.TempPasswordPlain = ""
	}
	return list, nil
}

func (w *Workflow) load(ctx context.Context, id int64) (*domain.Request, error) {
	req, err := w.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.NotFound("request %d not found", id)
	}
	return req, nil
}
