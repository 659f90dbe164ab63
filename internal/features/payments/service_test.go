package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winbingo.dev/bingo-bot/internal/common"
)

// fakeStore записывает вызовы хранилища.
type fakeStore struct {
	verified  []Confirmation
	pending   []pendingDeposit
	withdraws []withdrawal

	verifyErr error
}

type pendingDeposit struct {
	userID  int64
	amount  int64
	rawText string
}

type withdrawal struct {
	userID      int64
	amount      int64
	destination string
}

func (f *fakeStore) VerifyDeposit(ctx context.Context, userID int64, c Confirmation, amount int64) error {
	if f.verifyErr != nil {
		return f.verifyErr
	}
	f.verified = append(f.verified, c)
	return nil
}

func (f *fakeStore) CreatePendingDeposit(ctx context.Context, userID int64, amount int64, c Confirmation, rawText string) error {
	f.pending = append(f.pending, pendingDeposit{userID, amount, rawText})
	return nil
}

func (f *fakeStore) CreateWithdrawal(ctx context.Context, userID int64, amount int64, reference, destination string) error {
	f.withdraws = append(f.withdraws, withdrawal{userID, amount, destination})
	return nil
}

func (f *fakeStore) ListPending(ctx context.Context, limit int) ([]*Request, error) {
	return nil, nil
}

func (f *fakeStore) CountPending(ctx context.Context) (int, error) { return len(f.pending), nil }

func (f *fakeStore) Approve(ctx context.Context, requestID int64) (*Request, error) {
	return nil, common.ErrRequestNotPending
}

func (f *fakeStore) Reject(ctx context.Context, requestID int64) (*Request, error) {
	return nil, common.ErrRequestNotPending
}

func newTestPaymentsService() (*Service, *fakeStore) {
	fs := &fakeStore{}
	// допуск 1 быр, минимальный вывод 50 быр
	return NewService(fs, 100, 5000), fs
}

const cbeText = "CBE: you have transferred ETB 150.00, Ref FT24123ABC45"

func TestDepositAutoVerified(t *testing.T) {
	svc, fs := newTestPaymentsService()

	res, err := svc.Deposit(context.Background(), 1, 15000, cbeText)
	require.NoError(t, err)
	assert.True(t, res.AutoVerified)
	assert.Equal(t, int64(15000), res.Amount)
	assert.Equal(t, "FT24123ABC45", res.Reference)

	require.Len(t, fs.verified, 1)
	assert.Empty(t, fs.pending)
}

func TestDepositWithinTolerance(t *testing.T) {
	svc, fs := newTestPaymentsService()

	// Заявлено 149.50, в тексте 150.00 — расхождение 50 сантимов в допуске
	res, err := svc.Deposit(context.Background(), 1, 14950, cbeText)
	require.NoError(t, err)
	assert.True(t, res.AutoVerified)
	// Зачисляется сумма из подтверждения, не заявленная
	assert.Equal(t, int64(15000), res.Amount)
	require.Len(t, fs.verified, 1)
}

func TestDepositAmountMismatchGoesPending(t *testing.T) {
	svc, fs := newTestPaymentsService()

	res, err := svc.Deposit(context.Background(), 1, 10000, cbeText)
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.False(t, res.AutoVerified)
	assert.ErrorIs(t, res.Reason, common.ErrAmountMismatch, "игрок узнаёт конкретную причину")

	assert.Empty(t, fs.verified)
	require.Len(t, fs.pending, 1)
	assert.Equal(t, int64(10000), fs.pending[0].amount)
	assert.Equal(t, cbeText, fs.pending[0].rawText, "исходный текст сохраняется для админа")
}

func TestDepositUnparsedGoesPending(t *testing.T) {
	svc, fs := newTestPaymentsService()

	res, err := svc.Deposit(context.Background(), 1, 10000, "скинул денег, зачисли плз")
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.ErrorIs(t, res.Reason, common.ErrParseFailed)
	require.Len(t, fs.pending, 1)
}

func TestDepositDuplicateReference(t *testing.T) {
	svc, fs := newTestPaymentsService()
	fs.verifyErr = common.ErrDuplicateReference

	_, err := svc.Deposit(context.Background(), 1, 15000, cbeText)
	assert.ErrorIs(t, err, common.ErrDuplicateReference)
	assert.Empty(t, fs.pending, "дубликат не создаёт заявку")
}

func TestDepositInvalidAmount(t *testing.T) {
	svc, _ := newTestPaymentsService()

	_, err := svc.Deposit(context.Background(), 1, 0, cbeText)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestWithdraw(t *testing.T) {
	svc, fs := newTestPaymentsService()

	res, err := svc.Withdraw(context.Background(), 1, 20000, "CBE 1000987654321")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), res.Amount)
	assert.NotEmpty(t, res.Reference)

	require.Len(t, fs.withdraws, 1)
	assert.Equal(t, withdrawal{1, 20000, "CBE 1000987654321"}, fs.withdraws[0])
}

func TestWithdrawBelowMinimum(t *testing.T) {
	svc, fs := newTestPaymentsService()

	_, err := svc.Withdraw(context.Background(), 1, 4999, "CBE 1000987654321")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
	assert.Empty(t, fs.withdraws)
}

func TestWithdrawNoDestination(t *testing.T) {
	svc, fs := newTestPaymentsService()

	_, err := svc.Withdraw(context.Background(), 1, 20000, "")
	assert.Error(t, err)
	assert.Empty(t, fs.withdraws)
}
