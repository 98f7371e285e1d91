package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/akylbek/payment-system/topup-store/internal/interfaces"
	"github.com/akylbek/payment-system/topup-store/internal/models"
)

// MemoryStore keeps games, vouchers and transactions in process memory with
// the same uniqueness and conditional-update rules as the PostgreSQL schema.
// It backs local runs without DATABASE_URL and the service tests.
type MemoryStore struct {
	mu           sync.Mutex
	now          func() time.Time
	games        map[int64]models.Game
	vouchers     map[int64]models.Voucher
	transactions map[int64]models.Transaction
	orderIDs     map[string]int64
	nextID       int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		games:        map[int64]models.Game{},
		vouchers:     map[int64]models.Voucher{},
		transactions: map[int64]models.Transaction{},
		orderIDs:     map[string]int64{},
	}
}

func (s *MemoryStore) Games() *MemoryGameRepository { return &MemoryGameRepository{s: s} }

func (s *MemoryStore) Vouchers() *MemoryVoucherRepository { return &MemoryVoucherRepository{s: s} }

func (s *MemoryStore) Transactions() *MemoryTransactionRepository {
	return &MemoryTransactionRepository{s: s}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

type MemoryTransactionRepository struct{ s *MemoryStore }

func (r *MemoryTransactionRepository) Insert(_ context.Context, tx *models.Transaction) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.orderIDs[tx.OrderID]; taken {
		return interfaces.ErrDuplicate
	}
	tx.ID = s.id()
	tx.CreatedAt = s.now()
	tx.UpdatedAt = tx.CreatedAt
	s.transactions[tx.ID] = cloneTransaction(*tx)
	s.orderIDs[tx.OrderID] = tx.ID
	return nil
}

func (r *MemoryTransactionRepository) GetByID(_ context.Context, id int64) (*models.Transaction, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := cloneTransaction(tx)
	return &out, nil
}

func (r *MemoryTransactionRepository) ListByUser(_ context.Context, userID int64, status *models.TransactionStatus, limit, offset int) ([]models.Transaction, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Transaction
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if status != nil && tx.Status != *status {
			continue
		}
		matched = append(matched, cloneTransaction(tx))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return page(matched, limit, offset), int64(len(matched)), nil
}

func (r *MemoryTransactionRepository) ApplyPayment(_ context.Context, id int64, from models.TransactionStatus, result models.PaymentResult) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok || tx.Status != from {
		return 0, nil
	}
	method := result.PaymentMethod
	details := result.PaymentDetails
	tx.Status = result.Status
	tx.PaymentMethod = &method
	tx.PaymentDetails = &details
	tx.PaidAt = nil
	if result.PaidAt != nil {
		paidAt := *result.PaidAt
		tx.PaidAt = &paidAt
	}
	tx.UpdatedAt = s.now()
	s.transactions[id] = tx
	return 1, nil
}

type MemoryGameRepository struct{ s *MemoryStore }

func (r *MemoryGameRepository) ListActive(_ context.Context, limit int) ([]models.Game, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	games := []models.Game{}
	for _, g := range s.games {
		if g.IsActive {
			games = append(games, g)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

func (r *MemoryGameRepository) GetBySlug(_ context.Context, slug string) (*models.Game, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.games {
		if g.Slug == slug {
			out := g
			return &out, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *MemoryGameRepository) GetByID(_ context.Context, id int64) (*models.Game, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &g, nil
}

func (r *MemoryGameRepository) List(_ context.Context, limit, offset int) ([]models.Game, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	games := make([]models.Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].CreatedAt.After(games[j].CreatedAt)
		}
		return games[i].ID > games[j].ID
	})
	return page(games, limit, offset), int64(len(games)), nil
}

func (r *MemoryGameRepository) SlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameSlugTaken(slug, excludeID), nil
}

func (s *MemoryStore) gameSlugTaken(slug string, excludeID int64) bool {
	for id, g := range s.games {
		if g.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (r *MemoryGameRepository) Insert(_ context.Context, game *models.Game) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gameSlugTaken(game.Slug, 0) {
		return interfaces.ErrDuplicate
	}
	game.ID = s.id()
	game.CreatedAt = s.now()
	game.UpdatedAt = game.CreatedAt
	s.games[game.ID] = *game
	return nil
}

func (r *MemoryGameRepository) Update(_ context.Context, game *models.Game) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.games[game.ID]
	if !ok {
		return interfaces.ErrNotFound
	}
	if s.gameSlugTaken(game.Slug, game.ID) {
		return interfaces.ErrDuplicate
	}
	game.CreatedAt = existing.CreatedAt
	game.UpdatedAt = s.now()
	s.games[game.ID] = *game
	return nil
}

func (r *MemoryGameRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(s.games, id)
	return nil
}

func (r *MemoryGameRepository) Count(_ context.Context) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.games)), nil
}

type MemoryVoucherRepository struct{ s *MemoryStore }

func (r *MemoryVoucherRepository) ListActive(_ context.Context, limit int) ([]models.Voucher, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	vouchers := []models.Voucher{}
	for _, v := range s.vouchers {
		if v.IsActive {
			vouchers = append(vouchers, v)
		}
	}
	sort.Slice(vouchers, func(i, j int) bool { return vouchers[i].ID < vouchers[j].ID })
	if limit > 0 && len(vouchers) > limit {
		vouchers = vouchers[:limit]
	}
	return vouchers, nil
}

func (r *MemoryVoucherRepository) GetBySlug(_ context.Context, slug string) (*models.Voucher, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.vouchers {
		if v.Slug == slug {
			out := v
			return &out, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *MemoryVoucherRepository) Insert(_ context.Context, v *models.Voucher) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.vouchers {
		if existing.Slug == v.Slug {
			return interfaces.ErrDuplicate
		}
	}
	v.ID = s.id()
	v.CreatedAt = s.now()
	v.UpdatedAt = v.CreatedAt
	s.vouchers[v.ID] = *v
	return nil
}

func (r *MemoryVoucherRepository) Count(_ context.Context) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.vouchers)), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func cloneTransaction(tx models.Transaction) models.Transaction {
	if tx.ItemDetails.GameTopup != nil {
		d := *tx.ItemDetails.GameTopup
		tx.ItemDetails.GameTopup = &d
	}
	if tx.ItemDetails.Voucher != nil {
		d := *tx.ItemDetails.Voucher
		tx.ItemDetails.Voucher = &d
	}
	if tx.PaymentMethod != nil {
		m := *tx.PaymentMethod
		tx.PaymentMethod = &m
	}
	if tx.PaymentDetails != nil {
		d := *tx.PaymentDetails
		tx.PaymentDetails = &d
	}
	if tx.PaidAt != nil {
		t := *tx.PaidAt
		tx.PaidAt = &t
	}
	return tx
}
