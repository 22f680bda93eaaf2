package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clubreg/entity"
	"clubreg/lib/clock"
	"clubreg/lib/sl"
)

// Database is the storage surface the core needs. Implemented by
// internal/database.MongoDB.
type Database interface {
	MemberByID(id string) (*entity.Member, error)
	MemberByPhone(phone string) (*entity.Member, error)
	SetApproved(id, membershipID string, approvedAt, expiry time.Time) (*entity.Member, error)
	SetRejected(id string) (*entity.Member, error)
	SetPaymentRef(id, sessionID string) error
	ConfirmPayment(sessionID string) (*entity.Member, error)
	MembersByStatus(status entity.MemberStatus) ([]*entity.Member, error)
	AllMembers() ([]*entity.Member, error)
}

// Allocator issues membership identifiers. Implemented by impl/allocator.
type Allocator interface {
	NextID() (string, error)
	CreateWithRetry(member *entity.Member) (*entity.Member, error)
}

// PaymentService creates membership-fee checkout links.
type PaymentService interface {
	CheckoutLink(member *entity.Member) (url string, sessionID string, err error)
}

// Notifier delivers membership events to the admin channel. All methods are
// best effort; failures never affect the request.
type Notifier interface {
	ApplicationReceived(member *entity.Member)
	PaymentReceived(member *entity.Member)
	Approved(member *entity.Member)
	Rejected(member *entity.Member)
}

type Core struct {
	db       Database
	alloc    Allocator
	policy   entity.Policy
	clubName string
	payments PaymentService
	notify   Notifier
	log      *slog.Logger
}

func New(db Database, alloc Allocator, policy entity.Policy, clubName string, log *slog.Logger) *Core {
	return &Core{
		db:       db,
		alloc:    alloc,
		policy:   policy,
		clubName: clubName,
		log:      log.With(sl.Module("core")),
	}
}

func (c *Core) SetPaymentService(payments PaymentService) {
	c.payments = payments
}

func (c *Core) SetNotifier(notify Notifier) {
	c.notify = notify
}

// Register validates an application against the deployment policy, rejects
// duplicate phones and creates the record through the allocator. Under the
// paid policy a checkout link is attached to the receipt.
func (c *Core) Register(reg *entity.Registration) (*entity.Receipt, error) {
	if err := reg.RequiredBy(c.policy); err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, err)
	}

	_, err := c.db.MemberByPhone(reg.Phone)
	if err == nil {
		return nil, entity.ErrDuplicatePhone
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	member := &entity.Member{
		Name:            reg.Name,
		Age:             reg.Age,
		Phone:           reg.Phone,
		Email:           reg.Email,
		Country:         reg.Country,
		PhotoURL:        reg.PhotoURL,
		PhotoID:         reg.PhotoID,
		PaymentProofURL: reg.PaymentProofURL,
		PaymentProofID:  reg.PaymentProofID,
		Status:          c.policy.InitialStatus,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := c.alloc.CreateWithRetry(member)
	if err != nil {
		return nil, err
	}
	log := c.log.With(
		slog.String("membership_id", created.MembershipID),
		slog.String("phone", created.Phone),
	)
	log.Info("member registered")

	receipt := &entity.Receipt{
		MembershipID: created.MembershipID,
		Status:       created.Status,
	}

	if c.policy.CollectFee && c.payments != nil {
		url, sessionID, err := c.payments.CheckoutLink(created)
		if err != nil {
			// the record exists; payment can be chased manually
			log.With(sl.Err(err)).Error("create checkout link")
		} else {
			if err = c.db.SetPaymentRef(created.ID.Hex(), sessionID); err != nil {
				log.With(sl.Err(err)).Error("save payment reference")
			}
			receipt.PaymentURL = url
		}
	}

	if c.notify != nil {
		c.notify.ApplicationReceived(created)
	}
	return receipt, nil
}

// Approve moves a pending-equivalent record into approved. Records without a
// membership identifier get one allocated here; normally the id is assigned
// at registration. Terminal records are immutable.
func (c *Core) Approve(id string) (*entity.Member, error) {
	member, err := c.db.MemberByID(id)
	if err != nil {
		return nil, err
	}
	if !member.Status.CanDecide() {
		return nil, fmt.Errorf("member %s is %s: %w", id, member.Status, entity.ErrTerminalStatus)
	}

	membershipID := member.MembershipID
	if membershipID == "" {
		membershipID, err = c.alloc.NextID()
		if err != nil {
			return nil, err
		}
		c.log.With(
			slog.String("member", id),
			slog.String("membership_id", membershipID),
		).Info("membership id allocated at approval")
	}

	approvedAt := time.Now().UTC()
	expiry := clock.ExpiryFrom(approvedAt)
	updated, err := c.db.SetApproved(id, membershipID, approvedAt, expiry)
	if err != nil {
		return nil, err
	}
	c.log.With(
		slog.String("membership_id", updated.MembershipID),
		slog.Time("expiry", expiry),
	).Info("member approved")

	if c.notify != nil {
		c.notify.Approved(updated)
	}
	return updated, nil
}

// Reject moves a pending-equivalent record into rejected. No other fields
// change; terminal records are immutable.
func (c *Core) Reject(id string) (*entity.Member, error) {
	member, err := c.db.MemberByID(id)
	if err != nil {
		return nil, err
	}
	if !member.Status.CanDecide() {
		return nil, fmt.Errorf("member %s is %s: %w", id, member.Status, entity.ErrTerminalStatus)
	}

	updated, err := c.db.SetRejected(id)
	if err != nil {
		return nil, err
	}
	c.log.With(
		slog.String("member", id),
		slog.String("phone", updated.Phone),
	).Info("member rejected")

	if c.notify != nil {
		c.notify.Rejected(updated)
	}
	return updated, nil
}

// ConfirmPayment advances the record tied to a completed checkout session.
// An unknown session is reported as not found; replayed webhook deliveries
// land there too.
func (c *Core) ConfirmPayment(sessionID string) (*entity.Member, error) {
	member, err := c.db.ConfirmPayment(sessionID)
	if err != nil {
		return nil, err
	}
	c.log.With(
		slog.String("membership_id", member.MembershipID),
		slog.String("session_id", sessionID),
	).Info("membership fee received")

	if c.notify != nil {
		c.notify.PaymentReceived(member)
	}
	return member, nil
}

func (c *Core) PendingMembers() ([]*entity.Member, error) {
	return c.db.MembersByStatus(entity.StatusPendingApproval)
}

func (c *Core) AllMembers() ([]*entity.Member, error) {
	return c.db.AllMembers()
}

func (c *Core) MemberProfile(id string) (*entity.Member, error) {
	return c.db.MemberByID(id)
}

// Card assembles the payload an external ID-card renderer consumes.
// Available only for approved members.
func (c *Core) Card(id string) (*entity.Card, error) {
	member, err := c.db.MemberByID(id)
	if err != nil {
		return nil, err
	}
	if !member.IsApproved() {
		return nil, entity.ErrNotApproved
	}

	validTill := time.Time{}
	switch {
	case member.ExpiryDate != nil:
		validTill = *member.ExpiryDate
	case member.ApprovedAt != nil:
		validTill = clock.ExpiryFrom(*member.ApprovedAt)
	default:
		// records approved before expiry stamping existed
		validTill = clock.ExpiryFrom(member.CreatedAt)
	}

	return &entity.Card{
		ClubName:     c.clubName,
		Name:         member.Name,
		MembershipID: member.MembershipID,
		Phone:        member.Phone,
		PhotoURL:     member.PhotoURL,
		ValidTill:    validTill,
	}, nil
}
