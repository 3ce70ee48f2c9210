package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shop-auth-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockPrincipalStore struct{ mock.Mock }

func (m *mockPrincipalStore) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	args := m.Called(ctx, email)
	if p, _ := args.Get(0).(*domain.Principal); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPrincipalStore) Update(ctx context.Context, principalID string, updates map[string]interface{}) error {
	return m.Called(ctx, principalID, updates).Error(0)
}

type mockOperationStore struct{ mock.Mock }

func (m *mockOperationStore) Put(ctx context.Context, op *domain.RecoveryOperation) error {
	return m.Called(ctx, op).Error(0)
}
func (m *mockOperationStore) Get(ctx context.Context, principalID, name string) (*domain.RecoveryOperation, error) {
	args := m.Called(ctx, principalID, name)
	if op, _ := args.Get(0).(*domain.RecoveryOperation); op != nil {
		return op, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOperationStore) UpdateStatus(ctx context.Context, principalID, name, status string) error {
	return m.Called(ctx, principalID, name, status).Error(0)
}
func (m *mockOperationStore) Delete(ctx context.Context, principalID, name string) error {
	return m.Called(ctx, principalID, name).Error(0)
}

type mockSessionRevoker struct{ mock.Mock }

func (m *mockSessionRevoker) RevokeAllForPrincipal(ctx context.Context, principalID string) error {
	return m.Called(ctx, principalID).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

// --- helpers ---

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newSvc(ps *mockPrincipalStore, os *mockOperationStore, sr *mockSessionRevoker, ml *mockMailer, sms *mockSMSSender) *service {
	svc := NewService(ps, os, sr, ml, sms, 0).(*service)
	svc.now = func() time.Time { return t0 }
	return svc
}

func testPrincipal() *domain.Principal {
	phone := "+15550001111"
	return &domain.Principal{
		PrincipalID: "user-1",
		Username:    "alice",
		Email:       "alice@example.com",
		Phone:       &phone,
		Type:        domain.TypeUser,
	}
}

func sentOperation(code string) *domain.RecoveryOperation {
	return &domain.RecoveryOperation{
		PrincipalID: "user-1",
		Name:        domain.OpForgotPassword,
		Status:      domain.OpStatusOTPSent,
		OTP:         code,
		CreatedAt:   t0.Unix(),
		ExpiresAt:   t0.Add(DefaultOperationLifetime).Unix(),
	}
}

// --- Start ---

func TestStart_EmailChannel(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)

	var put *domain.RecoveryOperation
	os.On("Put", mock.Anything, mock.AnythingOfType("*domain.RecoveryOperation")).Run(func(args mock.Arguments) {
		put = args.Get(1).(*domain.RecoveryOperation)
	}).Return(nil)
	ml.On("SendEmail", "alice@example.com", mock.Anything, mock.Anything).Return(nil)
	os.On("UpdateStatus", mock.Anything, "user-1", domain.OpForgotPassword, domain.OpStatusOTPSent).Return(nil)

	err := newSvc(ps, os, sr, ml, sms).Start(context.Background(), StartRequest{Email: "alice@example.com"})

	require.NoError(t, err)
	require.NotNil(t, put)
	assert.Equal(t, domain.OpStatusStarted, put.Status)
	assert.Len(t, put.OTP, 4)
	ml.AssertCalled(t, "SendEmail", "alice@example.com", mock.Anything, mock.Anything)
	os.AssertCalled(t, "UpdateStatus", mock.Anything, "user-1", domain.OpForgotPassword, domain.OpStatusOTPSent)
}

func TestStart_ConfiguredLifetime_StampsExpiry(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)

	var put *domain.RecoveryOperation
	os.On("Put", mock.Anything, mock.AnythingOfType("*domain.RecoveryOperation")).Run(func(args mock.Arguments) {
		put = args.Get(1).(*domain.RecoveryOperation)
	}).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	os.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(ps, os, sr, ml, sms, 5*time.Minute).(*service)
	svc.now = func() time.Time { return t0 }

	require.NoError(t, svc.Start(context.Background(), StartRequest{Email: "alice@example.com"}))
	require.NotNil(t, put)
	assert.Equal(t, t0.Add(5*time.Minute).Unix(), put.ExpiresAt)
}

func TestNewService_ZeroLifetime_KeepsDefault(t *testing.T) {
	svc := NewService(&mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}, 0).(*service)
	assert.Equal(t, DefaultOperationLifetime, svc.lifetime)
}

func TestStart_SMSChannel(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	os.On("Put", mock.Anything, mock.Anything).Return(nil)
	sms.On("SendSMS", mock.Anything, "+15550001111", mock.Anything).Return(nil)
	os.On("UpdateStatus", mock.Anything, "user-1", domain.OpForgotPassword, domain.OpStatusOTPSent).Return(nil)

	err := newSvc(ps, os, sr, ml, sms).Start(context.Background(), StartRequest{Email: "alice@example.com", Channel: ChannelSMS})

	require.NoError(t, err)
	sms.AssertCalled(t, "SendSMS", mock.Anything, "+15550001111", mock.Anything)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestStart_SMSChannel_NoPhoneOnFile(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	p := testPrincipal()
	p.Phone = nil
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(p, nil)
	os.On("Put", mock.Anything, mock.Anything).Return(nil)

	err := newSvc(ps, os, sr, ml, sms).Start(context.Background(), StartRequest{Email: "alice@example.com", Channel: ChannelSMS})

	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestStart_UnknownIdentity_GenericValidationError(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	err := newSvc(ps, os, sr, ml, sms).Start(context.Background(), StartRequest{Email: "ghost@example.com"})

	assert.True(t, errors.Is(err, domain.ErrValidation))
	os.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestStart_RestrictedPrincipal_GenericValidationError(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	p := testPrincipal()
	p.Restricted = true
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(p, nil)

	err := newSvc(ps, os, sr, ml, sms).Start(context.Background(), StartRequest{Email: "alice@example.com"})

	assert.True(t, errors.Is(err, domain.ErrValidation))
	os.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// A second start overwrites the row, so the old code stops matching: the Put
// key is (principal_id, name) and the payload carries the fresh OTP.
func TestStart_SupersedesPriorOperation(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)

	var codes []string
	os.On("Put", mock.Anything, mock.AnythingOfType("*domain.RecoveryOperation")).Run(func(args mock.Arguments) {
		op := args.Get(1).(*domain.RecoveryOperation)
		assert.Equal(t, "user-1", op.PrincipalID)
		assert.Equal(t, domain.OpForgotPassword, op.Name)
		codes = append(codes, op.OTP)
	}).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	os.On("UpdateStatus", mock.Anything, "user-1", domain.OpForgotPassword, domain.OpStatusOTPSent).Return(nil)

	svc := newSvc(ps, os, sr, ml, sms)
	require.NoError(t, svc.Start(context.Background(), StartRequest{Email: "alice@example.com"}))
	require.NoError(t, svc.Start(context.Background(), StartRequest{Email: "alice@example.com"}))

	assert.Len(t, codes, 2)
	os.AssertNumberOfCalls(t, "Put", 2)
}

// --- CheckCode ---

func TestCheckCode_Match_AdvancesToOTPCorrect(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(sentOperation("1234"), nil)
	os.On("UpdateStatus", mock.Anything, "user-1", domain.OpForgotPassword, domain.OpStatusOTPCorrect).Return(nil)

	err := newSvc(ps, os, sr, ml, sms).CheckCode(context.Background(), CheckCodeRequest{Email: "alice@example.com", OTP: "1234"})

	require.NoError(t, err)
	os.AssertCalled(t, "UpdateStatus", mock.Anything, "user-1", domain.OpForgotPassword, domain.OpStatusOTPCorrect)
}

func TestCheckCode_Mismatch_RowUntouched(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(sentOperation("1234"), nil)

	err := newSvc(ps, os, sr, ml, sms).CheckCode(context.Background(), CheckCodeRequest{Email: "alice@example.com", OTP: "9999"})

	assert.True(t, errors.Is(err, domain.ErrValidation))
	os.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	os.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckCode_NoActiveOperation(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(nil, domain.ErrNotFound)

	err := newSvc(ps, os, sr, ml, sms).CheckCode(context.Background(), CheckCodeRequest{Email: "alice@example.com", OTP: "1234"})

	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCheckCode_ExpiredOperation(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	op := sentOperation("1234")
	op.ExpiresAt = t0.Add(-time.Minute).Unix()
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(op, nil)

	err := newSvc(ps, os, sr, ml, sms).CheckCode(context.Background(), CheckCodeRequest{Email: "alice@example.com", OTP: "1234"})

	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCheckCode_AlreadyCorrect_Idempotent(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	op := sentOperation("1234")
	op.Status = domain.OpStatusOTPCorrect
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(op, nil)

	err := newSvc(ps, os, sr, ml, sms).CheckCode(context.Background(), CheckCodeRequest{Email: "alice@example.com", OTP: "1234"})

	require.NoError(t, err)
	os.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Complete ---

func TestComplete_UpdatesPasswordDeletesOperationRevokesSessions(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(sentOperation("1234"), nil)

	var updates map[string]interface{}
	ps.On("Update", mock.Anything, "user-1", mock.Anything).Run(func(args mock.Arguments) {
		updates = args.Get(2).(map[string]interface{})
	}).Return(nil)
	os.On("Delete", mock.Anything, "user-1", domain.OpForgotPassword).Return(nil)
	sr.On("RevokeAllForPrincipal", mock.Anything, "user-1").Return(nil)

	err := newSvc(ps, os, sr, ml, sms).Complete(context.Background(), CompleteRequest{
		Email:       "alice@example.com",
		OTP:         "1234",
		NewPassword: "brand-new-pass",
	})

	require.NoError(t, err)
	os.AssertCalled(t, "Delete", mock.Anything, "user-1", domain.OpForgotPassword)
	sr.AssertCalled(t, "RevokeAllForPrincipal", mock.Anything, "user-1")

	hash, ok := updates["password_hash"].(string)
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("brand-new-pass")))
}

func TestComplete_WrongCode_NothingConsumed(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(sentOperation("1234"), nil)

	err := newSvc(ps, os, sr, ml, sms).Complete(context.Background(), CompleteRequest{
		Email:       "alice@example.com",
		OTP:         "0000",
		NewPassword: "brand-new-pass",
	})

	assert.True(t, errors.Is(err, domain.ErrValidation))
	ps.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	os.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	sr.AssertNotCalled(t, "RevokeAllForPrincipal", mock.Anything, mock.Anything)
}

func TestComplete_RestrictedPrincipal(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	p := testPrincipal()
	p.Restricted = true
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(p, nil)

	err := newSvc(ps, os, sr, ml, sms).Complete(context.Background(), CompleteRequest{
		Email:       "alice@example.com",
		OTP:         "1234",
		NewPassword: "brand-new-pass",
	})

	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// Two devices racing: the loser finds no row and gets the same generic error.
func TestComplete_OperationAlreadyConsumed(t *testing.T) {
	ps, os, sr, ml, sms := &mockPrincipalStore{}, &mockOperationStore{}, &mockSessionRevoker{}, &mockMailer{}, &mockSMSSender{}
	ps.On("GetByEmail", mock.Anything, "alice@example.com").Return(testPrincipal(), nil)
	os.On("Get", mock.Anything, "user-1", domain.OpForgotPassword).Return(nil, domain.ErrNotFound)

	err := newSvc(ps, os, sr, ml, sms).Complete(context.Background(), CompleteRequest{
		Email:       "alice@example.com",
		OTP:         "1234",
		NewPassword: "brand-new-pass",
	})

	assert.True(t, errors.Is(err, domain.ErrValidation))
}
