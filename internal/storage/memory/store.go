// Package memory provides an in-memory store for tests and demo deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clawdnet/clawdnet/internal/domain"
	"github.com/clawdnet/clawdnet/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu           sync.RWMutex
	agents       map[string]*domain.Agent // keyed by handle
	transactions []*domain.Transaction
	payments     []*domain.Payment
	stats        map[string][2]int // agent id -> {invocations, successes}
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		agents: make(map[string]*domain.Agent),
		stats:  make(map[string][2]int),
	}
}

func (s *Store) CreateAgent(ctx context.Context, agent *domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.Handle]; exists {
		return storage.ErrAlreadyExists
	}

	agent.CreatedAt = time.Now()
	agent.UpdatedAt = agent.CreatedAt

	cp := *agent
	s.agents[agent.Handle] = &cp
	return nil
}

func (s *Store) GetAgentByHandle(ctx context.Context, handle string) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, exists := s.agents[handle]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *agent
	return &cp, nil
}

func (s *Store) ListAgents(ctx context.Context) ([]*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]*domain.Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		cp := *agent
		agents = append(agents, &cp)
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})
	return agents, nil
}

func (s *Store) UpdateAgent(ctx context.Context, agent *domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.agents[agent.Handle]
	if !exists {
		return storage.ErrNotFound
	}

	agent.CreatedAt = existing.CreatedAt
	agent.UpdatedAt = time.Now()
	cp := *agent
	s.agents[agent.Handle] = &cp
	return nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *tx
	s.transactions = append(s.transactions, &cp)
	return nil
}

func (s *Store) ListTransactionsByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var txs []*domain.Transaction
	for i := len(s.transactions) - 1; i >= 0 && len(txs) < limit; i-- {
		if s.transactions[i].AgentID == agentID {
			cp := *s.transactions[i]
			txs = append(txs, &cp)
		}
	}
	return txs, nil
}

func (s *Store) CountTransactions(ctx context.Context, agentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, tx := range s.transactions {
		if tx.AgentID == agentID {
			count++
		}
	}
	return count, nil
}

func (s *Store) SavePayment(ctx context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.payments = append(s.payments, &cp)
	return nil
}

func (s *Store) ListPaymentsByAgent(ctx context.Context, agentID string, limit int) ([]*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var payments []*domain.Payment
	for i := len(s.payments) - 1; i >= 0 && len(payments) < limit; i-- {
		if s.payments[i].ToAgentID == agentID {
			cp := *s.payments[i]
			payments = append(payments, &cp)
		}
	}
	return payments, nil
}

func (s *Store) IncrementAgentStats(ctx context.Context, agentID string, succeeded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats[agentID]
	st[0]++
	if succeeded {
		st[1]++
	}
	s.stats[agentID] = st
	return nil
}

// Stats returns the counters for an agent. Test helper.
func (s *Store) Stats(agentID string) (invocations, successes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.stats[agentID]
	return st[0], st[1]
}

func (s *Store) Close() error {
	return nil
}
