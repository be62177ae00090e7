// Package rewards — обмен баланса на товары из каталога.
package rewards

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/ledger"
)

// Store — магазин наград.
type Store struct {
	catalog *catalog.Catalog
}

// NewStore создаёт магазин поверх каталога.
func NewStore(c *catalog.Catalog) *Store {
	return &Store{catalog: c}
}

// Items — товары магазина в порядке каталога.
func (s *Store) Items() []catalog.Reward {
	return append([]catalog.Reward(nil), s.catalog.Rewards...)
}

// Redemption — подготовленный обмен.
type Redemption struct {
	Reward  catalog.Reward
	Entry   ledger.Entry
	Voucher string // Код ваучера, например SF-1A2B3C4D
}

// Plan проверяет обмен до списания: товар существует и баланса хватает.
func (s *Store) Plan(itemID string, balance int64) (Redemption, error) {
	r, ok := s.catalog.RewardByID(itemID)
	if !ok {
		return Redemption{}, fmt.Errorf("%q: %w", itemID, common.ErrUnknownReward)
	}
	if balance < r.Cost {
		return Redemption{}, fmt.Errorf("%s costs %d, balance %d: %w", r.Title, r.Cost, balance, common.ErrInsufficientBalance)
	}
	return Redemption{
		Reward: r,
		Entry: ledger.Entry{
			Amount:      r.Cost,
			Description: "Redeemed: " + r.Title,
			Kind:        ledger.Debit,
		},
		Voucher: VoucherCode(),
	}, nil
}

// VoucherCode — "SF-" + первые 8 hex-символов UUID в верхнем регистре.
func VoucherCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SF-" + strings.ToUpper(id[:8])
}
