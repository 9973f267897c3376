package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testAgent() *domain.Agent {
	return &domain.Agent{
		ID:          "agent-1",
		Handle:      "sol",
		Name:        "Sol",
		Description: "test agent",
		Status:      domain.StatusOnline,
		Wallet:      "0xabc",
		X402Support: true,
		Skills: []domain.Skill{
			{Name: "text-generation", Price: "0.05"},
			{Name: "analysis"},
		},
		WebhookURL:   "https://sol.example.com/hook",
		OwnerKeyHash: "hash-1",
	}
}

func TestAgentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateAgent(ctx, testAgent()); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	got, err := store.GetAgentByHandle(ctx, "sol")
	if err != nil {
		t.Fatalf("GetAgentByHandle failed: %v", err)
	}
	if got.ID != "agent-1" || got.Name != "Sol" || !got.X402Support {
		t.Errorf("unexpected agent %+v", got)
	}
	if len(got.Skills) != 2 || got.Skills[0].Price != "0.05" {
		t.Errorf("skills did not round-trip: %v", got.Skills)
	}
	if got.OwnerKeyHash != "hash-1" {
		t.Errorf("owner key hash did not round-trip: %q", got.OwnerKeyHash)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAgentByHandle(context.Background(), "ghost")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAgentDuplicateHandle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateAgent(ctx, testAgent()); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	dup := testAgent()
	dup.ID = "agent-2"
	if err := store.CreateAgent(ctx, dup); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateAgent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	agent := testAgent()
	if err := store.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	agent.Status = domain.StatusOffline
	agent.Skills = []domain.Skill{{Name: "translation", Price: "0.10"}}
	if err := store.UpdateAgent(ctx, agent); err != nil {
		t.Fatalf("UpdateAgent failed: %v", err)
	}

	got, err := store.GetAgentByHandle(ctx, "sol")
	if err != nil {
		t.Fatalf("GetAgentByHandle failed: %v", err)
	}
	if got.Status != domain.StatusOffline {
		t.Errorf("status not updated: %s", got.Status)
	}
	if len(got.Skills) != 1 || got.Skills[0].Name != "translation" {
		t.Errorf("skills not updated: %v", got.Skills)
	}

	missing := testAgent()
	missing.Handle = "ghost"
	if err := store.UpdateAgent(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown handle, got %v", err)
	}
}

func TestListAgents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testAgent()
	if err := store.CreateAgent(ctx, first); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}
	second := testAgent()
	second.ID = "agent-2"
	second.Handle = "luna"
	if err := store.CreateAgent(ctx, second); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	agents, err := store.ListAgents(ctx)
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if len(agents) != 2 {
		t.Errorf("expected 2 agents, got %d", len(agents))
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:              "tx-1",
		AgentID:         "agent-1",
		Skill:           "text-generation",
		Input:           map[string]any{"prompt": "hi"},
		Output:          map[string]any{"text": "hello"},
		Status:          domain.TransactionCompleted,
		ExecutionTimeMs: 120,
		CreatedAt:       now,
		CompletedAt:     &now,
	}
	if err := store.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("SaveTransaction failed: %v", err)
	}

	failed := &domain.Transaction{
		ID:           "tx-2",
		AgentID:      "agent-1",
		Skill:        "text-generation",
		Status:       domain.TransactionFailed,
		ErrorMessage: "agent endpoint timed out",
		CreatedAt:    now.Add(time.Second),
	}
	if err := store.SaveTransaction(ctx, failed); err != nil {
		t.Fatalf("SaveTransaction failed: %v", err)
	}

	txs, err := store.ListTransactionsByAgent(ctx, "agent-1", 10)
	if err != nil {
		t.Fatalf("ListTransactionsByAgent failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	// Newest first.
	if txs[0].ID != "tx-2" {
		t.Errorf("expected newest first, got %s", txs[0].ID)
	}
	if txs[0].ErrorMessage != "agent endpoint timed out" {
		t.Errorf("error message did not round-trip: %q", txs[0].ErrorMessage)
	}
	if txs[1].Input["prompt"] != "hi" || txs[1].Output["text"] != "hello" {
		t.Errorf("input/output did not round-trip: %+v", txs[1])
	}
	if txs[1].CompletedAt == nil {
		t.Errorf("completed_at did not round-trip")
	}

	count, err := store.CountTransactions(ctx, "agent-1")
	if err != nil {
		t.Fatalf("CountTransactions failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestPaymentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &domain.Payment{
		ID:         "pay-1",
		ToAgentID:  "agent-1",
		Amount:     "0.05",
		Currency:   "USDC",
		Status:     domain.PaymentCompleted,
		ExternalID: "settle-1",
		Metadata:   map[string]string{"payer": "0xpayer", "protocol": "x402"},
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.SavePayment(ctx, p); err != nil {
		t.Fatalf("SavePayment failed: %v", err)
	}

	payments, err := store.ListPaymentsByAgent(ctx, "agent-1", 10)
	if err != nil {
		t.Fatalf("ListPaymentsByAgent failed: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	got := payments[0]
	if got.Amount != "0.05" || got.ExternalID != "settle-1" {
		t.Errorf("payment did not round-trip: %+v", got)
	}
	if got.Metadata["payer"] != "0xpayer" {
		t.Errorf("metadata did not round-trip: %v", got.Metadata)
	}
}

func TestIncrementAgentStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.IncrementAgentStats(ctx, "agent-1", true); err != nil {
		t.Fatalf("IncrementAgentStats failed: %v", err)
	}
	if err := store.IncrementAgentStats(ctx, "agent-1", false); err != nil {
		t.Fatalf("IncrementAgentStats failed: %v", err)
	}

	var invocations, successes int
	err := store.db.QueryRow(
		`SELECT invocations, successes FROM agent_stats WHERE agent_id = ?`, "agent-1",
	).Scan(&invocations, &successes)
	if err != nil {
		t.Fatalf("query stats: %v", err)
	}
	if invocations != 2 || successes != 1 {
		t.Errorf("expected (2,1), got (%d,%d)", invocations, successes)
	}
}
