package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
)

type MockAccountDirectory struct {
	mock.Mock
}

func (m *MockAccountDirectory) GetByUID(ctx context.Context, uid string) (*domain.AccountRecord, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountRecord), args.Error(1)
}

func newTestResolver(directory repository.AccountDirectory) *AccountResolver {
	return NewAccountResolver(directory, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func approvedAccount(uid, email, fullName, roleType string) *domain.AccountRecord {
	return &domain.AccountRecord{
		UID:      uid,
		Email:    email,
		FullName: fullName,
		AuthRole: domain.AuthRoleViewer,
		RoleType: roleType,
	}
}

func TestResolveSender_Approved(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "u1").
		Return(approvedAccount("u1", "jane@example.org", "Jane Doe", domain.RoleTypeParent), nil).Once()

	sender, err := newTestResolver(dir).ResolveSender(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sender.UID)
	assert.Equal(t, "jane@example.org", sender.Email)
	assert.Equal(t, "Jane Doe", sender.Name)
	assert.True(t, sender.IsAdult)
	dir.AssertExpectations(t)
}

func TestResolveSender_NotFound(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "ghost").Return(nil, repository.ErrAccountNotFound).Once()

	_, err := newTestResolver(dir).ResolveSender(context.Background(), "ghost")
	assertRejectedWith(t, err, domain.ReasonSenderNotApproved)
}

func TestResolveSender_NotApproved(t *testing.T) {
	dir := new(MockAccountDirectory)
	acc := approvedAccount("u1", "jane@example.org", "Jane Doe", domain.RoleTypeParent)
	acc.AuthRole = ""
	dir.On("GetByUID", mock.Anything, "u1").Return(acc, nil).Once()

	_, err := newTestResolver(dir).ResolveSender(context.Background(), "u1")
	assertRejectedWith(t, err, domain.ReasonSenderNotApproved)
}

func TestResolveSender_EmailMissing(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "u1").
		Return(approvedAccount("u1", "  ", "Jane Doe", domain.RoleTypeParent), nil).Once()

	_, err := newTestResolver(dir).ResolveSender(context.Background(), "u1")
	assertRejectedWith(t, err, domain.ReasonSenderEmailMissing)
}

func TestResolveSender_RoleTypeDefaultsToScout(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "u1").
		Return(approvedAccount("u1", "kid@example.org", "Kid", ""), nil).Once()

	sender, err := newTestResolver(dir).ResolveSender(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTypeScout, sender.RoleType)
	assert.False(t, sender.IsAdult)
}

func TestResolveSender_DirectoryError(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "u1").Return(nil, errors.New("connection reset")).Once()

	_, err := newTestResolver(dir).ResolveSender(context.Background(), "u1")
	require.Error(t, err)
	_, isRej := domain.AsRejection(err)
	assert.False(t, isRej, "infrastructure failures must not be rejections")
}

func TestResolveRecipients_FiltersAndKeepsOrder(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "ok1").
		Return(approvedAccount("ok1", "ok1@example.org", "First", domain.RoleTypeScout), nil).Once()
	dir.On("GetByUID", mock.Anything, "ghost").Return(nil, repository.ErrAccountNotFound).Once()
	unapproved := approvedAccount("pending", "pending@example.org", "Pending", domain.RoleTypeScout)
	unapproved.AuthRole = ""
	dir.On("GetByUID", mock.Anything, "pending").Return(unapproved, nil).Once()
	dir.On("GetByUID", mock.Anything, "noemail").
		Return(approvedAccount("noemail", "", "No Email", domain.RoleTypeScout), nil).Once()
	dir.On("GetByUID", mock.Anything, "ok2").
		Return(approvedAccount("ok2", "ok2@example.org", "Second", domain.RoleTypeParent), nil).Once()

	toUIDs := []string{"ok1", "", "sender", "ghost", "pending", "noemail", "ok2"}
	recipients, err := newTestResolver(dir).ResolveRecipients(context.Background(), "sender", toUIDs)
	require.NoError(t, err)
	require.Len(t, recipients, 2)
	assert.Equal(t, "ok1", recipients[0].UID)
	assert.Equal(t, "ok2", recipients[1].UID)
	dir.AssertExpectations(t)
}

func TestResolveRecipients_DuplicatesKept(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "ok1").
		Return(approvedAccount("ok1", "ok1@example.org", "First", domain.RoleTypeScout), nil).Twice()

	recipients, err := newTestResolver(dir).ResolveRecipients(context.Background(), "sender", []string{"ok1", "ok1"})
	require.NoError(t, err)
	assert.Len(t, recipients, 2)
}

func TestResolveRecipients_NoneEligible(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "ghost").Return(nil, repository.ErrAccountNotFound).Once()

	_, err := newTestResolver(dir).ResolveRecipients(context.Background(), "sender", []string{"ghost", "sender", ""})
	assertRejectedWith(t, err, domain.ReasonNoEligibleRecipients)
}

func TestResolveRecipients_DirectoryErrorPropagates(t *testing.T) {
	dir := new(MockAccountDirectory)
	dir.On("GetByUID", mock.Anything, "ok1").Return(nil, errors.New("timeout")).Once()

	_, err := newTestResolver(dir).ResolveRecipients(context.Background(), "sender", []string{"ok1"})
	require.Error(t, err)
	_, isRej := domain.AsRejection(err)
	assert.False(t, isRej)
}
