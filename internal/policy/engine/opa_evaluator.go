package engine

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"registration-backend/internal/apperr"
	"registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/repository"
)

const denyQuery = "data.registration.authz.deny"

// defaultRegoPolicy mirrors the decisions of Table. Stored policies replace it when enabled.
//
//go:embed authz.rego
var defaultRegoPolicy string

// DefaultPolicy returns the built-in Rego module.
func DefaultPolicy() string { return defaultRegoPolicy }

// OPAEvaluator evaluates authorization requests with OPA Rego. The query is prepared once and
// reused; Reload recompiles it from the policy repository.
type OPAEvaluator struct {
	policyRepo repository.Repository

	mu    sync.RWMutex
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles the enabled stored policies, or the built-in policy when policyRepo is
// nil or has none enabled.
func NewOPAEvaluator(ctx context.Context, policyRepo repository.Repository) (*OPAEvaluator, error) {
	e := &OPAEvaluator{policyRepo: policyRepo}
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload recompiles the policy set. On failure the previously prepared query stays in use.
func (e *OPAEvaluator) Reload(ctx context.Context) error {
	policies := []string{defaultRegoPolicy}
	if e.policyRepo != nil {
		stored, err := e.policyRepo.ListEnabled(ctx)
		if err != nil {
			log.Printf("policy: failed to load stored policies, using built-in policy: %v", err)
		} else if len(stored) > 0 {
			policies = policies[:0]
			for _, p := range stored {
				if p.Rules != "" {
					policies = append(policies, p.Rules)
				}
			}
			if len(policies) == 0 {
				policies = []string{defaultRegoPolicy}
			}
		}
	}
	q, err := prepare(ctx, policies)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.query = q
	e.mu.Unlock()
	return nil
}

// HealthCheck verifies that the built-in policy compiles and evaluates. Does not touch the policy repo.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	q, err := prepare(ctx, []string{defaultRegoPolicy})
	if err != nil {
		return err
	}
	if _, err := q.Eval(ctx, rego.EvalInput(buildInput(domain.Request{}))); err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	return nil
}

// Authorize implements Authorizer. Evaluation failures are returned as plain errors so the caller
// denies the action.
func (e *OPAEvaluator) Authorize(ctx context.Context, req domain.Request) error {
	e.mu.RLock()
	q := e.query
	e.mu.RUnlock()

	rs, err := q.Eval(ctx, rego.EvalInput(buildInput(req)))
	if err != nil {
		return fmt.Errorf("policy evaluation: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy evaluation: %s returned no result", denyQuery)
	}
	reason, err := firstViolation(rs[0].Expressions[0].Value)
	if err != nil {
		return err
	}
	if reason != "" {
		return apperr.Forbidden("%s", reason)
	}
	return nil
}

func prepare(ctx context.Context, policies []string) (rego.PreparedEvalQuery, error) {
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("compile policies: %w", err)
	}
	q, err := rego.New(
		rego.Query(denyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("prepare policy query: %w", err)
	}
	return q, nil
}

func buildInput(req domain.Request) map[string]interface{} {
	return map[string]interface{}{
		"action": string(req.Action),
		"actor": map[string]interface{}{
			"email": req.Actor.Email,
			"role":  string(req.Actor.Role),
		},
		"target": map[string]interface{}{
			"email": req.Target.Email,
			"role":  string(req.Target.Role),
		},
		"new_role": string(req.NewRole),
	}
}

type violation struct {
	priority int64
	msg      string
}

// firstViolation picks the lowest-priority violation from the deny set, breaking ties by message.
// An empty set means the request is allowed.
func firstViolation(v interface{}) (string, error) {
	set, ok := v.([]interface{})
	if !ok {
		return "", fmt.Errorf("policy evaluation: unexpected deny value %T", v)
	}
	violations := make([]violation, 0, len(set))
	for _, item := range set {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("policy evaluation: unexpected violation %T", item)
		}
		msg, _ := obj["msg"].(string)
		var prio int64
		switch p := obj["priority"].(type) {
		case json.Number:
			prio, _ = p.Int64()
		case float64:
			prio = int64(p)
		case int64:
			prio = p
		}
		if msg == "" {
			msg = "denied by policy"
		}
		violations = append(violations, violation{priority: prio, msg: msg})
	}
	if len(violations) == 0 {
		return "", nil
	}
	sort.Slice(violations, func(i, j int) bool {
		if violations[i].priority != violations[j].priority {
			return violations[i].priority < violations[j].priority
		}
		return violations[i].msg < violations[j].msg
	})
	return violations[0].msg, nil
}
