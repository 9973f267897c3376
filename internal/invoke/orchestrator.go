// Package invoke sequences the invocation lifecycle: resolve the agent, check
// availability, forward or payment-gate, execute, record, respond.
package invoke

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/effects"
	"github.com/clawdnet/clawdnet/internal/forwarder"
	"github.com/clawdnet/clawdnet/internal/server"
	"github.com/clawdnet/clawdnet/internal/storage"
	"github.com/clawdnet/clawdnet/internal/x402"
)

// Verifier checks a decoded payment proof against a requirement.
type Verifier interface {
	Verify(ctx context.Context, proof map[string]any, requirement x402.Requirement) x402.VerificationResult
}

// AgentForwarder relays an invocation to a real agent endpoint.
type AgentForwarder interface {
	Forward(ctx context.Context, endpoint string, payload map[string]any, requestID, callerHandle string) (*forwarder.Response, error)
}

// Executor generates deterministic stand-in output for a skill.
type Executor interface {
	Generate(skill string, input map[string]any) map[string]any
}

// Policy holds the deployment-level decisions of the pipeline.
type Policy struct {
	// Network is the settlement network for payment challenges.
	Network string

	// ForwardFallback degrades a failed forward to mock execution instead of
	// returning a forward_failure error. Demo deployments only.
	ForwardFallback bool
}

// Outcome is the terminal result of one invocation attempt: either a
// successful result or a 402 payment challenge for the caller to satisfy.
type Outcome struct {
	Result    *domain.InvocationResult
	Challenge *x402.PaymentRequired
}

// Orchestrator composes the directory, facilitator, forwarder, executor, and
// recorder into the invocation state machine.
type Orchestrator struct {
	directory storage.AgentStore
	recorder  storage.Store
	verifier  Verifier
	forwarder AgentForwarder
	executor  Executor
	sink      *effects.Sink
	policy    Policy
	logger    *slog.Logger
}

// New creates an orchestrator.
func New(store storage.Store, verifier Verifier, fwd AgentForwarder, exec Executor, sink *effects.Sink, policy Policy, logger *slog.Logger) *Orchestrator {
	if policy.Network == "" {
		policy.Network = x402.DefaultNetwork
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		directory: store,
		recorder:  store,
		verifier:  verifier,
		forwarder: fwd,
		executor:  exec,
		sink:      sink,
		policy:    policy,
		logger:    logger,
	}
}

// Invoke runs one invocation attempt. The returned InvokeError is the only
// error allowed to shape the HTTP status; recorder and side-effect failures
// are absorbed here.
//
// Retried calls with the same payment proof are re-verified and produce a new
// Transaction row; there is no caller-supplied idempotency key.
func (o *Orchestrator) Invoke(ctx context.Context, req *domain.InvocationRequest) (*Outcome, *domain.InvokeError) {
	agent, err := o.directory.GetAgentByHandle(ctx, req.AgentHandle)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrAgentNotFound()
		}
		o.logger.Error("agent lookup failed",
			slog.String("handle", req.AgentHandle),
			slog.String("error", err.Error()),
		)
		return nil, domain.ErrServer()
	}

	if !agent.Invokable() {
		return nil, domain.ErrAgentOffline()
	}

	if agent.HasRealEndpoint() {
		return o.forward(ctx, agent, req)
	}

	price := agent.PriceFor(req.Skill)
	if agent.X402Support && price != "0" {
		return o.payGate(ctx, agent, req, price)
	}

	// Unpriced path: "free" when the agent participates in x402 but the skill
	// carries no price, plain "mock" otherwise.
	source := domain.SourceMock
	if agent.X402Support {
		source = domain.SourceFree
	}
	return o.execute(ctx, agent, req, "", source), nil
}

// forward relays the invocation to the agent's own endpoint. Payment gating is
// bypassed: the origin agent enforces its own payment policy.
func (o *Orchestrator) forward(ctx context.Context, agent *domain.Agent, req *domain.InvocationRequest) (*Outcome, *domain.InvokeError) {
	payload := map[string]any{
		"skill": req.Skill,
		"input": req.Input,
	}

	start := time.Now()
	resp, err := o.forwarder.Forward(ctx, agent.Endpoint, payload, requestIDFrom(ctx), req.CallerHandle)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		class := forwarder.Classify(err)
		o.logger.Warn("forward failed",
			slog.String("agent", agent.Handle),
			slog.String("endpoint", agent.Endpoint),
			slog.String("class", string(class)),
			slog.String("error", err.Error()),
		)

		if o.policy.ForwardFallback {
			// Demo policy: degrade to mock output. The single transaction row
			// for this attempt carries the mock result and the forward error.
			outcome := o.execute(ctx, agent, req, "", domain.SourceMock)
			return outcome, nil
		}

		o.record(ctx, agent, &domain.Transaction{
			ID:              uuid.New().String(),
			AgentID:         agent.ID,
			Skill:           req.Skill,
			Input:           req.Input,
			Status:          domain.TransactionFailed,
			ExecutionTimeMs: elapsed,
			ErrorMessage:    err.Error(),
			CreatedAt:       time.Now().UTC(),
		}, domain.SourceForwarded)

		return nil, domain.ErrForwardFailure("Agent endpoint failed").
			WithDetails(map[string]any{"class": string(class)})
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:              uuid.New().String(),
		AgentID:         agent.ID,
		Skill:           req.Skill,
		Input:           req.Input,
		Output:          resp.Body,
		Status:          domain.TransactionCompleted,
		ExecutionTimeMs: elapsed,
		CreatedAt:       now,
		CompletedAt:     &now,
	}
	o.record(ctx, agent, tx, domain.SourceForwarded)

	return &Outcome{Result: &domain.InvocationResult{
		Success:         true,
		AgentHandle:     agent.Handle,
		Skill:           req.Skill,
		Output:          resp.Body,
		ExecutionTimeMs: elapsed,
		TransactionID:   tx.ID,
		Timestamp:       now,
		Source:          domain.SourceForwarded,
	}}, nil
}

// payGate issues a 402 challenge when no proof is present, otherwise verifies
// the proof. Verification always completes before any work is performed.
func (o *Orchestrator) payGate(ctx context.Context, agent *domain.Agent, req *domain.InvocationRequest, price string) (*Outcome, *domain.InvokeError) {
	requirement := x402.BuildRequirement(agent, req.Skill, price, o.policy.Network)

	if !req.HasProof() {
		challenge := x402.Challenge(requirement)
		return &Outcome{Challenge: &challenge}, nil
	}

	proof, err := x402.DecodeProof(req.Proof)
	if err != nil {
		return nil, domain.ErrPaymentInvalid(map[string]any{"reason": err.Error()})
	}

	result := o.verifier.Verify(ctx, proof, requirement)
	if !result.Valid {
		return nil, domain.ErrPaymentInvalid(map[string]any{"reason": result.ErrorReason})
	}

	payment := &domain.Payment{
		ID:         uuid.New().String(),
		ToAgentID:  agent.ID,
		Amount:     price,
		Currency:   "USDC",
		Status:     domain.PaymentCompleted,
		ExternalID: result.SettlementReference,
		Metadata: map[string]string{
			"payer":    result.PayerAddress,
			"skill":    req.Skill,
			"protocol": "x402",
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := o.recorder.SavePayment(ctx, payment); err != nil {
		o.logger.Error("payment record failed",
			slog.String("agent", agent.Handle),
			slog.String("settlement", result.SettlementReference),
			slog.String("error", err.Error()),
		)
	}

	outcome := o.execute(ctx, agent, req, result.SettlementReference, domain.SourcePaid)
	return outcome, nil
}

// execute runs the mock executor and records the completed transaction. It
// never fails: the executor is total and recorder failures are absorbed.
func (o *Orchestrator) execute(ctx context.Context, agent *domain.Agent, req *domain.InvocationRequest, settlementID string, source domain.Source) *Outcome {
	output := o.executor.Generate(req.Skill, req.Input)
	simulated := simulatedExecutionMs()

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:              uuid.New().String(),
		AgentID:         agent.ID,
		Skill:           req.Skill,
		Input:           req.Input,
		Output:          output,
		Status:          domain.TransactionCompleted,
		ExecutionTimeMs: simulated,
		CreatedAt:       now,
		CompletedAt:     &now,
	}
	o.record(ctx, agent, tx, source)

	return &Outcome{Result: &domain.InvocationResult{
		Success:         true,
		AgentHandle:     agent.Handle,
		Skill:           req.Skill,
		Output:          output,
		ExecutionTimeMs: simulated,
		TransactionID:   tx.ID,
		SettlementID:    settlementID,
		Timestamp:       now,
		Source:          source,
	}}
}

// record writes the transaction and fires the non-critical effects. A recorder
// failure is logged and never fails the request.
func (o *Orchestrator) record(ctx context.Context, agent *domain.Agent, tx *domain.Transaction, source domain.Source) {
	if err := o.recorder.SaveTransaction(ctx, tx); err != nil {
		o.logger.Error("transaction record failed",
			slog.String("agent", agent.Handle),
			slog.String("transaction_id", tx.ID),
			slog.String("error", err.Error()),
		)
	}
	if o.sink != nil {
		o.sink.InvocationRecorded(agent, tx, source)
	}
}

// simulatedExecutionMs adds execution-time jitter to mock runs. Content stays
// deterministic; only the reported latency varies.
func simulatedExecutionMs() int64 {
	return 50 + rand.Int64N(450)
}

func requestIDFrom(ctx context.Context) string {
	return server.GetRequestID(ctx)
}
