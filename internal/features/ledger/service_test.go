package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winbingo.dev/bingo-bot/internal/common"
)

// fakeStore — in-memory реализация Store для тестов сервиса.
type fakeStore struct {
	accounts     map[int64]*Account
	transactions []*Transaction
	transfers    []transferOp
}

type transferOp struct {
	from, to, amount int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[int64]*Account)}
}

func (f *fakeStore) EnsureAccount(ctx context.Context, userID int64) error {
	if _, ok := f.accounts[userID]; !ok {
		f.accounts[userID] = &Account{UserID: userID}
	}
	return nil
}

func (f *fakeStore) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	a, ok := f.accounts[userID]
	if !ok {
		return nil, common.ErrUnknownRecipient
	}
	return a, nil
}

func (f *fakeStore) Credit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	a, ok := f.accounts[userID]
	if !ok {
		return common.ErrUnknownRecipient
	}
	a.Balance += amount
	f.transactions = append(f.transactions, &Transaction{
		UserID: userID, Kind: kind, Amount: amount, Status: StatusApproved,
		Description: description, CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) Debit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	a, ok := f.accounts[userID]
	if !ok {
		return common.ErrUnknownRecipient
	}
	if a.Balance < amount {
		return common.ErrInsufficientFunds
	}
	a.Balance -= amount
	f.transactions = append(f.transactions, &Transaction{
		UserID: userID, Kind: kind, Amount: amount, Status: StatusApproved,
		Description: description, CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	from, ok := f.accounts[fromUserID]
	if !ok {
		return common.ErrUnknownRecipient
	}
	to, ok := f.accounts[toUserID]
	if !ok {
		return common.ErrUnknownRecipient
	}
	if from.Balance < amount {
		return common.ErrInsufficientFunds
	}
	from.Balance -= amount
	to.Balance += amount
	f.transfers = append(f.transfers, transferOp{fromUserID, toUserID, amount})
	return nil
}

func (f *fakeStore) AddCoins(ctx context.Context, userID int64, coins int64) error {
	if a, ok := f.accounts[userID]; ok {
		a.Coins += coins
	}
	return nil
}

func (f *fakeStore) ExchangeCoins(ctx context.Context, userID int64, rate int64) (int64, int64, error) {
	a, ok := f.accounts[userID]
	if !ok || a.Coins <= 0 {
		return 0, 0, common.ErrNotEnoughCoins
	}
	coins := a.Coins
	amount := coins * rate
	a.Coins = 0
	a.Balance += amount
	return coins, amount, nil
}

func (f *fakeStore) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	var out []*Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestLedger() (*Service, *fakeStore) {
	fs := newFakeStore()
	// бонус 100 быр, курс 10 сантимов за монету
	return NewService(fs, 10000, 10), fs
}

func TestCreditValidation(t *testing.T) {
	svc, _ := newTestLedger()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Credit(ctx, 1, 0, KindWin, ""), common.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Credit(ctx, 1, -100, KindWin, ""), common.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Debit(ctx, 1, 0, KindStake, ""), common.ErrInvalidAmount)
}

func TestTransferSelf(t *testing.T) {
	svc, _ := newTestLedger()
	assert.ErrorIs(t, svc.Transfer(context.Background(), 1, 1, 100), common.ErrSelfTransfer)
}

func TestTransferMovesMoney(t *testing.T) {
	svc, fs := newTestLedger()
	ctx := context.Background()

	require.NoError(t, fs.EnsureAccount(ctx, 1))
	require.NoError(t, fs.EnsureAccount(ctx, 2))
	fs.accounts[1].Balance = 5000

	require.NoError(t, svc.Transfer(ctx, 1, 2, 3000))
	assert.Equal(t, int64(2000), fs.accounts[1].Balance)
	assert.Equal(t, int64(3000), fs.accounts[2].Balance)

	// Деньги не появляются из ниоткуда
	assert.Equal(t, int64(5000), fs.accounts[1].Balance+fs.accounts[2].Balance)
}

func TestTransferInsufficient(t *testing.T) {
	svc, fs := newTestLedger()
	ctx := context.Background()

	require.NoError(t, fs.EnsureAccount(ctx, 1))
	require.NoError(t, fs.EnsureAccount(ctx, 2))

	err := svc.Transfer(ctx, 1, 2, 3000)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
}

func TestSignupBonus(t *testing.T) {
	svc, fs := newTestLedger()
	ctx := context.Background()

	require.NoError(t, svc.SignupBonus(ctx, 1))

	assert.Equal(t, int64(10000), fs.accounts[1].Balance)
	require.Len(t, fs.transactions, 1)
	assert.Equal(t, KindSignupBonus, fs.transactions[0].Kind)
}

func TestExchangeCoins(t *testing.T) {
	svc, fs := newTestLedger()
	ctx := context.Background()

	require.NoError(t, fs.EnsureAccount(ctx, 1))
	fs.accounts[1].Coins = 50

	coins, amount, err := svc.ExchangeCoins(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), coins)
	assert.Equal(t, int64(500), amount, "50 монет × 10 сантимов")
	assert.Zero(t, fs.accounts[1].Coins)
}

func TestExchangeCoinsEmpty(t *testing.T) {
	svc, fs := newTestLedger()
	ctx := context.Background()

	require.NoError(t, fs.EnsureAccount(ctx, 1))
	_, _, err := svc.ExchangeCoins(ctx, 1)
	assert.ErrorIs(t, err, common.ErrNotEnoughCoins)
}

func TestTransactionHistoryEmpty(t *testing.T) {
	svc, fs := newTestLedger()
	ctx := context.Background()
	require.NoError(t, fs.EnsureAccount(ctx, 1))

	history, err := svc.GetTransactionHistory(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, history, "нет транзакций")
}

func TestTransactionHistoryFormatsEntries(t *testing.T) {
	svc, fs := newTestLedger()
	ctx := context.Background()
	require.NoError(t, fs.EnsureAccount(ctx, 1))
	require.NoError(t, svc.Credit(ctx, 1, 15000, KindDeposit, "Пополнение"))
	require.NoError(t, svc.Debit(ctx, 1, 1000, KindStake, "Ставка"))

	history, err := svc.GetTransactionHistory(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, history, "+150.00 быр")
	assert.Contains(t, history, "-10.00 быр")
}
