package core

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"clubreg/entity"
)

type dbMock struct {
	mock.Mock
}

func (m *dbMock) MemberByID(id string) (*entity.Member, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Member), args.Error(1)
}

func (m *dbMock) MemberByPhone(phone string) (*entity.Member, error) {
	args := m.Called(phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Member), args.Error(1)
}

func (m *dbMock) SetApproved(id, membershipID string, approvedAt, expiry time.Time) (*entity.Member, error) {
	args := m.Called(id, membershipID, approvedAt, expiry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Member), args.Error(1)
}

func (m *dbMock) SetRejected(id string) (*entity.Member, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Member), args.Error(1)
}

func (m *dbMock) SetPaymentRef(id, sessionID string) error {
	args := m.Called(id, sessionID)
	return args.Error(0)
}

func (m *dbMock) ConfirmPayment(sessionID string) (*entity.Member, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Member), args.Error(1)
}

func (m *dbMock) MembersByStatus(status entity.MemberStatus) ([]*entity.Member, error) {
	args := m.Called(status)
	return args.Get(0).([]*entity.Member), args.Error(1)
}

func (m *dbMock) AllMembers() ([]*entity.Member, error) {
	args := m.Called()
	return args.Get(0).([]*entity.Member), args.Error(1)
}

type allocMock struct {
	mock.Mock
}

func (m *allocMock) NextID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *allocMock) CreateWithRetry(member *entity.Member) (*entity.Member, error) {
	args := m.Called(member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Member), args.Error(1)
}

type notifyMock struct {
	mock.Mock
}

func (m *notifyMock) ApplicationReceived(member *entity.Member) { m.Called(member) }
func (m *notifyMock) PaymentReceived(member *entity.Member)     { m.Called(member) }
func (m *notifyMock) Approved(member *entity.Member)            { m.Called(member) }
func (m *notifyMock) Rejected(member *entity.Member)            { m.Called(member) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newCore(db Database, alloc Allocator, mode entity.PolicyMode) *Core {
	policy, _ := entity.PolicyFor(string(mode))
	return New(db, alloc, policy, "Test Club", newNoopLogger())
}

func pendingMember(id primitive.ObjectID) *entity.Member {
	return &entity.Member{
		ID:           id,
		Name:         "Asha",
		Age:          27,
		Phone:        "5550001",
		MembershipID: "KSASC0001",
		Status:       entity.StatusPendingApproval,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestApprove_ExpiryIsOneCalendarYear(t *testing.T) {
	oid := primitive.NewObjectID()
	db := new(dbMock)
	db.On("MemberByID", oid.Hex()).Return(pendingMember(oid), nil).Once()

	var gotApprovedAt, gotExpiry time.Time
	db.On("SetApproved", oid.Hex(), "KSASC0001", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotApprovedAt = args.Get(2).(time.Time)
			gotExpiry = args.Get(3).(time.Time)
		}).
		Return(func() *entity.Member {
			m := pendingMember(oid)
			m.Status = entity.StatusApproved
			now := time.Now().UTC()
			expiry := now.AddDate(1, 0, 0)
			m.ApprovedAt = &now
			m.ExpiryDate = &expiry
			return m
		}(), nil).Once()

	updated, err := newCore(db, new(allocMock), entity.ModeOpen).Approve(oid.Hex())

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, updated.Status)
	assert.True(t, gotExpiry.Equal(gotApprovedAt.AddDate(1, 0, 0)))
	db.AssertExpectations(t)
}

func TestApprove_NotFound(t *testing.T) {
	db := new(dbMock)
	db.On("MemberByID", "missing").Return(nil, entity.ErrNotFound).Once()

	_, err := newCore(db, new(allocMock), entity.ModeOpen).Approve("missing")

	assert.ErrorIs(t, err, entity.ErrNotFound)
	db.AssertNotCalled(t, "SetApproved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_TerminalStatusRefused(t *testing.T) {
	for _, status := range []entity.MemberStatus{entity.StatusApproved, entity.StatusRejected} {
		oid := primitive.NewObjectID()
		member := pendingMember(oid)
		member.Status = status

		db := new(dbMock)
		db.On("MemberByID", oid.Hex()).Return(member, nil).Once()

		_, err := newCore(db, new(allocMock), entity.ModeOpen).Approve(oid.Hex())

		assert.ErrorIs(t, err, entity.ErrTerminalStatus)
		db.AssertNotCalled(t, "SetApproved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestApprove_AllocatesMissingMembershipID(t *testing.T) {
	oid := primitive.NewObjectID()
	member := pendingMember(oid)
	member.MembershipID = ""

	db := new(dbMock)
	db.On("MemberByID", oid.Hex()).Return(member, nil).Once()

	alloc := new(allocMock)
	alloc.On("NextID").Return("KSASC0009", nil).Once()

	approved := pendingMember(oid)
	approved.MembershipID = "KSASC0009"
	approved.Status = entity.StatusApproved
	now := time.Now().UTC()
	expiry := now.AddDate(1, 0, 0)
	approved.ApprovedAt = &now
	approved.ExpiryDate = &expiry
	db.On("SetApproved", oid.Hex(), "KSASC0009", mock.Anything, mock.Anything).
		Return(approved, nil).Once()

	updated, err := newCore(db, alloc, entity.ModeOpen).Approve(oid.Hex())

	assert.NoError(t, err)
	assert.Equal(t, "KSASC0009", updated.MembershipID)
	alloc.AssertExpectations(t)
	db.AssertExpectations(t)
}

func TestReject_LeavesApprovalFieldsEmpty(t *testing.T) {
	oid := primitive.NewObjectID()
	db := new(dbMock)
	db.On("MemberByID", oid.Hex()).Return(pendingMember(oid), nil).Once()

	rejected := pendingMember(oid)
	rejected.Status = entity.StatusRejected
	db.On("SetRejected", oid.Hex()).Return(rejected, nil).Once()

	updated, err := newCore(db, new(allocMock), entity.ModeOpen).Reject(oid.Hex())

	assert.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, updated.Status)
	assert.Nil(t, updated.ApprovedAt)
	assert.Nil(t, updated.ExpiryDate)
	db.AssertNotCalled(t, "SetApproved", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReject_NotFound(t *testing.T) {
	db := new(dbMock)
	db.On("MemberByID", "missing").Return(nil, entity.ErrNotFound).Once()

	_, err := newCore(db, new(allocMock), entity.ModeOpen).Reject("missing")

	assert.ErrorIs(t, err, entity.ErrNotFound)
	db.AssertNotCalled(t, "SetRejected", mock.Anything)
}

func TestRegister_Success(t *testing.T) {
	db := new(dbMock)
	db.On("MemberByPhone", "5550001").Return(nil, entity.ErrNotFound).Once()

	created := pendingMember(primitive.NewObjectID())
	alloc := new(allocMock)
	alloc.On("CreateWithRetry", mock.Anything).Return(created, nil).Once()

	notify := new(notifyMock)
	notify.On("ApplicationReceived", created).Once()

	c := newCore(db, alloc, entity.ModeOpen)
	c.SetNotifier(notify)

	receipt, err := c.Register(&entity.Registration{
		Name:  "Asha",
		Age:   27,
		Phone: "5550001",
	})

	assert.NoError(t, err)
	assert.Equal(t, "KSASC0001", receipt.MembershipID)
	assert.Equal(t, entity.StatusPendingApproval, receipt.Status)
	assert.Empty(t, receipt.PaymentURL)
	notify.AssertExpectations(t)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	db := new(dbMock)
	db.On("MemberByPhone", "5550001").Return(pendingMember(primitive.NewObjectID()), nil).Once()

	alloc := new(allocMock)
	_, err := newCore(db, alloc, entity.ModeOpen).Register(&entity.Registration{
		Name:  "Asha",
		Age:   27,
		Phone: "5550001",
	})

	assert.ErrorIs(t, err, entity.ErrDuplicatePhone)
	alloc.AssertNotCalled(t, "CreateWithRetry", mock.Anything)
}

func TestRegister_PolicyRequiresUploads(t *testing.T) {
	db := new(dbMock)
	alloc := new(allocMock)

	_, err := newCore(db, alloc, entity.ModeProof).Register(&entity.Registration{
		Name:  "Asha",
		Age:   27,
		Phone: "5550001",
	})

	assert.ErrorIs(t, err, entity.ErrValidation)
	db.AssertNotCalled(t, "MemberByPhone", mock.Anything)
	alloc.AssertNotCalled(t, "CreateWithRetry", mock.Anything)
}

func TestRegister_AllocationExhausted(t *testing.T) {
	db := new(dbMock)
	db.On("MemberByPhone", "5550001").Return(nil, entity.ErrNotFound).Once()

	alloc := new(allocMock)
	alloc.On("CreateWithRetry", mock.Anything).Return(nil, entity.ErrAllocationExhausted).Once()

	_, err := newCore(db, alloc, entity.ModeOpen).Register(&entity.Registration{
		Name:  "Asha",
		Age:   27,
		Phone: "5550001",
	})

	assert.ErrorIs(t, err, entity.ErrAllocationExhausted)
}

func TestConfirmPayment_UnknownSession(t *testing.T) {
	db := new(dbMock)
	db.On("ConfirmPayment", "cs_unknown").Return(nil, entity.ErrNotFound).Once()

	_, err := newCore(db, new(allocMock), entity.ModePaid).ConfirmPayment("cs_unknown")

	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestConfirmPayment_NotifiesAdmins(t *testing.T) {
	oid := primitive.NewObjectID()
	member := pendingMember(oid)

	db := new(dbMock)
	db.On("ConfirmPayment", "cs_123").Return(member, nil).Once()

	notify := new(notifyMock)
	notify.On("PaymentReceived", member).Once()

	c := newCore(db, new(allocMock), entity.ModePaid)
	c.SetNotifier(notify)

	got, err := c.ConfirmPayment("cs_123")

	assert.NoError(t, err)
	assert.Equal(t, member, got)
	notify.AssertExpectations(t)
}

func TestCard_RequiresApproval(t *testing.T) {
	oid := primitive.NewObjectID()
	db := new(dbMock)
	db.On("MemberByID", oid.Hex()).Return(pendingMember(oid), nil).Once()

	_, err := newCore(db, new(allocMock), entity.ModeOpen).Card(oid.Hex())

	assert.ErrorIs(t, err, entity.ErrNotApproved)
}

func TestCard_Payload(t *testing.T) {
	oid := primitive.NewObjectID()
	member := pendingMember(oid)
	member.Status = entity.StatusApproved
	member.PhotoURL = "https://img.example/photo.jpg"
	approvedAt := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	member.ApprovedAt = &approvedAt
	member.ExpiryDate = &expiry

	db := new(dbMock)
	db.On("MemberByID", oid.Hex()).Return(member, nil).Once()

	card, err := newCore(db, new(allocMock), entity.ModeOpen).Card(oid.Hex())

	assert.NoError(t, err)
	assert.Equal(t, "Test Club", card.ClubName)
	assert.Equal(t, "KSASC0001", card.MembershipID)
	assert.Equal(t, "Asha", card.Name)
	assert.Equal(t, "5550001", card.Phone)
	assert.True(t, card.ValidTill.Equal(expiry))
}

func TestCard_FallsBackToApprovedAt(t *testing.T) {
	oid := primitive.NewObjectID()
	member := pendingMember(oid)
	member.Status = entity.StatusApproved
	approvedAt := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	member.ApprovedAt = &approvedAt

	db := new(dbMock)
	db.On("MemberByID", oid.Hex()).Return(member, nil).Once()

	card, err := newCore(db, new(allocMock), entity.ModeOpen).Card(oid.Hex())

	assert.NoError(t, err)
	assert.True(t, card.ValidTill.Equal(approvedAt.AddDate(1, 0, 0)))
}

func TestPendingMembers_FiltersByStatus(t *testing.T) {
	members := []*entity.Member{pendingMember(primitive.NewObjectID())}
	db := new(dbMock)
	db.On("MembersByStatus", entity.StatusPendingApproval).Return(members, nil).Once()

	got, err := newCore(db, new(allocMock), entity.ModeOpen).PendingMembers()

	assert.NoError(t, err)
	assert.Equal(t, members, got)
	db.AssertExpectations(t)
}

func TestRegister_StorageErrorPropagates(t *testing.T) {
	db := new(dbMock)
	db.On("MemberByPhone", "5550001").Return(nil, errors.New("connection reset")).Once()

	alloc := new(allocMock)
	_, err := newCore(db, alloc, entity.ModeOpen).Register(&entity.Registration{
		Name:  "Asha",
		Age:   27,
		Phone: "5550001",
	})

	assert.Error(t, err)
	alloc.AssertNotCalled(t, "CreateWithRetry", mock.Anything)
}
