// Package sqlite provides the SQLite implementation of the marketplace store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/storage"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			handle TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT,
			endpoint TEXT,
			status TEXT NOT NULL,
			wallet TEXT,
			x402_support INTEGER NOT NULL DEFAULT 0,
			skills TEXT,
			webhook_url TEXT,
			owner_key_hash TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			skill TEXT NOT NULL,
			input TEXT,
			output TEXT,
			status TEXT NOT NULL,
			execution_time_ms INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			created_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			to_agent_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			external_id TEXT,
			metadata TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS agent_stats (
			agent_id TEXT PRIMARY KEY,
			invocations INTEGER NOT NULL DEFAULT 0,
			successes INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_handle ON agents(handle)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_agent ON transactions(agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_agent ON payments(to_agent_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) CreateAgent(ctx context.Context, agent *domain.Agent) error {
	agent.CreatedAt = time.Now()
	agent.UpdatedAt = agent.CreatedAt

	skills, err := json.Marshal(agent.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	query := `INSERT INTO agents (id, handle, name, description, endpoint, status, wallet,
	          x402_support, skills, webhook_url, owner_key_hash, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		agent.ID, agent.Handle, agent.Name, agent.Description, agent.Endpoint,
		string(agent.Status), agent.Wallet, boolToInt(agent.X402Support),
		string(skills), agent.WebhookURL, agent.OwnerKeyHash,
		agent.CreatedAt, agent.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) GetAgentByHandle(ctx context.Context, handle string) (*domain.Agent, error) {
	query := `SELECT id, handle, name, description, endpoint, status, wallet,
	          x402_support, skills, webhook_url, owner_key_hash, created_at, updated_at
	          FROM agents WHERE handle = ?`

	return s.scanAgent(s.db.QueryRowContext(ctx, query, handle))
}

func (s *Store) ListAgents(ctx context.Context) ([]*domain.Agent, error) {
	query := `SELECT id, handle, name, description, endpoint, status, wallet,
	          x402_support, skills, webhook_url, owner_key_hash, created_at, updated_at
	          FROM agents ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*domain.Agent
	for rows.Next() {
		agent, err := s.scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (s *Store) UpdateAgent(ctx context.Context, agent *domain.Agent) error {
	agent.UpdatedAt = time.Now()

	skills, err := json.Marshal(agent.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}

	query := `UPDATE agents SET name = ?, description = ?, endpoint = ?, status = ?,
	          wallet = ?, x402_support = ?, skills = ?, webhook_url = ?, updated_at = ?
	          WHERE handle = ?`

	res, err := s.db.ExecContext(ctx, query,
		agent.Name, agent.Description, agent.Endpoint, string(agent.Status),
		agent.Wallet, boolToInt(agent.X402Support), string(skills),
		agent.WebhookURL, agent.UpdatedAt, agent.Handle)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanAgent.
type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanAgent(row scanner) (*domain.Agent, error) {
	var agent domain.Agent
	var status, skillsJSON string
	var x402 int

	err := row.Scan(&agent.ID, &agent.Handle, &agent.Name, &agent.Description,
		&agent.Endpoint, &status, &agent.Wallet, &x402, &skillsJSON,
		&agent.WebhookURL, &agent.OwnerKeyHash, &agent.CreatedAt, &agent.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}

	agent.Status = domain.AgentStatus(status)
	agent.X402Support = x402 != 0
	if skillsJSON != "" {
		if err := json.Unmarshal([]byte(skillsJSON), &agent.Skills); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
		}
	}
	return &agent, nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	input, err := json.Marshal(tx.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	output, err := json.Marshal(tx.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	query := `INSERT INTO transactions (id, agent_id, skill, input, output, status,
	          execution_time_ms, error_message, created_at, completed_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		tx.ID, tx.AgentID, tx.Skill, string(input), string(output),
		string(tx.Status), tx.ExecutionTimeMs, tx.ErrorMessage,
		tx.CreatedAt, tx.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactionsByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, agent_id, skill, input, output, status, execution_time_ms,
	          error_message, created_at, completed_at
	          FROM transactions WHERE agent_id = ?
	          ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var status, inputJSON, outputJSON string
		var errMsg sql.NullString
		var completedAt sql.NullTime

		if err := rows.Scan(&tx.ID, &tx.AgentID, &tx.Skill, &inputJSON, &outputJSON,
			&status, &tx.ExecutionTimeMs, &errMsg, &tx.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		tx.Status = domain.TransactionStatus(status)
		tx.ErrorMessage = errMsg.String
		if completedAt.Valid {
			t := completedAt.Time
			tx.CompletedAt = &t
		}
		if inputJSON != "" && inputJSON != "null" {
			if err := json.Unmarshal([]byte(inputJSON), &tx.Input); err != nil {
				return nil, fmt.Errorf("failed to unmarshal input: %w", err)
			}
		}
		if outputJSON != "" && outputJSON != "null" {
			if err := json.Unmarshal([]byte(outputJSON), &tx.Output); err != nil {
				return nil, fmt.Errorf("failed to unmarshal output: %w", err)
			}
		}
		txs = append(txs, &tx)
	}
	return txs, rows.Err()
}

func (s *Store) CountTransactions(ctx context.Context, agentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE agent_id = ?`, agentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (s *Store) SavePayment(ctx context.Context, p *domain.Payment) error {
	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `INSERT INTO payments (id, to_agent_id, amount, currency, status,
	          external_id, metadata, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.ToAgentID, p.Amount, p.Currency, string(p.Status),
		p.ExternalID, string(metadata), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *Store) ListPaymentsByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, to_agent_id, amount, currency, status, external_id, metadata, created_at
	          FROM payments WHERE to_agent_id = ?
	          ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var p domain.Payment
		var status, metadataJSON string

		if err := rows.Scan(&p.ID, &p.ToAgentID, &p.Amount, &p.Currency, &status,
			&p.ExternalID, &metadataJSON, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		p.Status = domain.PaymentStatus(status)
		if metadataJSON != "" && metadataJSON != "null" {
			if err := json.Unmarshal([]byte(metadataJSON), &p.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func (s *Store) IncrementAgentStats(ctx context.Context, agentID string, succeeded bool) error {
	success := 0
	if succeeded {
		success = 1
	}
	query := `INSERT INTO agent_stats (agent_id, invocations, successes, updated_at)
	          VALUES (?, 1, ?, ?)
	          ON CONFLICT(agent_id) DO UPDATE SET
	          invocations = invocations + 1,
	          successes = successes + ?,
	          updated_at = ?`

	now := time.Now()
	_, err := s.db.ExecContext(ctx, query, agentID, success, now, success, now)
	if err != nil {
		return fmt.Errorf("failed to increment stats: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
