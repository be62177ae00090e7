package rewards

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/superfast-bot/internal/common"
	"serotonyl.ru/superfast-bot/internal/features/catalog"
	"serotonyl.ru/superfast-bot/internal/features/ledger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewStore(c)
}

func TestPlan(t *testing.T) {
	s := newStore(t)

	t.Run("Success", func(t *testing.T) {
		r, err := s.Plan("recharge", 60)
		require.NoError(t, err)
		assert.Equal(t, ledger.Entry{Amount: 50, Description: "Redeemed: Mobile Recharge", Kind: ledger.Debit}, r.Entry)
		assert.Regexp(t, regexp.MustCompile(`^SF-[0-9A-F]{8}$`), r.Voucher)
	})

	t.Run("InsufficientBalance", func(t *testing.T) {
		_, err := s.Plan("diesel", 499)
		assert.ErrorIs(t, err, common.ErrInsufficientBalance)
	})

	t.Run("UnknownReward", func(t *testing.T) {
		_, err := s.Plan("yacht", 1_000_000)
		assert.ErrorIs(t, err, common.ErrUnknownReward)
	})
}

func TestItems(t *testing.T) {
	items := newStore(t).Items()
	require.Len(t, items, 4)
	assert.Equal(t, "Petrol Voucher", items[0].Title)
}

func TestVoucherCodesDiffer(t *testing.T) {
	assert.NotEqual(t, VoucherCode(), VoucherCode())
}
