package allocator

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"clubreg/entity"
	"clubreg/lib/sl"
)

// Database is the storage surface the allocator needs. Implemented by
// internal/database.MongoDB.
type Database interface {
	NextSequence() (int64, error)
	SyncSequence(target int64) (int64, error)
	FindLatest() (*entity.Member, error)
	InsertMember(member *entity.Member) (*entity.Member, error)
}

// Allocator issues sequential membership identifiers. The counter lives in a
// dedicated document and is advanced atomically, so concurrent callers each
// get a distinct candidate. The storage uniqueness constraint on
// membership_id stays as the backstop: anything inserted out of band (a
// roster import, a manual fix) triggers a collision, a counter re-sync and a
// bounded retry.
type Allocator struct {
	db          Database
	prefix      string
	padWidth    int
	maxAttempts int
	log         *slog.Logger
}

func New(db Database, prefix string, padWidth, maxAttempts int, log *slog.Logger) *Allocator {
	if padWidth < 1 {
		padWidth = 4
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Allocator{
		db:          db,
		prefix:      prefix,
		padWidth:    padWidth,
		maxAttempts: maxAttempts,
		log:         log.With(sl.Module("allocator")),
	}
}

// NextID returns the next candidate membership identifier. A freshly created
// counter catches up with any records that already exist, so the first value
// issued is always one past the highest identifier on record.
func (a *Allocator) NextID() (string, error) {
	seq, err := a.db.NextSequence()
	if err != nil {
		return "", fmt.Errorf("next sequence: %w", err)
	}
	if seq == 1 {
		last, err := a.lastIssued()
		if err != nil {
			return "", err
		}
		if last >= seq {
			seq, err = a.db.SyncSequence(last + 1)
			if err != nil {
				return "", fmt.Errorf("sync sequence: %w", err)
			}
		}
	}
	return a.Format(seq), nil
}

// CreateWithRetry persists a new member under a freshly allocated
// identifier. A membership id collision re-syncs the counter past the
// highest identifier on record and tries again, up to maxAttempts. Any other
// failure aborts immediately.
func (a *Allocator) CreateWithRetry(member *entity.Member) (*entity.Member, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		id, err := a.NextID()
		if err != nil {
			return nil, err
		}
		member.MembershipID = id

		created, err := a.db.InsertMember(member)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, entity.ErrDuplicateMembershipID) {
			return nil, err
		}

		a.log.With(
			slog.String("candidate", id),
			slog.Int("attempt", attempt),
		).Warn("membership id collision")

		if err = a.resync(); err != nil {
			return nil, err
		}
	}
	return nil, entity.ErrAllocationExhausted
}

// resync pushes the counter past the highest identifier currently on record.
func (a *Allocator) resync() error {
	last, err := a.lastIssued()
	if err != nil {
		return err
	}
	if last > 0 {
		if _, err = a.db.SyncSequence(last); err != nil {
			return fmt.Errorf("sync sequence: %w", err)
		}
	}
	return nil
}

// lastIssued reads the numeric suffix of the most recently created record's
// identifier, or 0 when no record carries one.
func (a *Allocator) lastIssued() (int64, error) {
	latest, err := a.db.FindLatest()
	if err != nil {
		return 0, fmt.Errorf("find latest member: %w", err)
	}
	if latest == nil || latest.MembershipID == "" {
		return 0, nil
	}
	n, err := a.Parse(latest.MembershipID)
	if err != nil {
		// an id issued under a different prefix does not advance the counter
		a.log.With(sl.Err(err)).Warn("unparsable membership id on latest record")
		return 0, nil
	}
	return n, nil
}

// Format renders a counter value as an identifier: prefix plus the decimal
// value zero-padded to padWidth, growing without re-padding past the width.
func (a *Allocator) Format(seq int64) string {
	return fmt.Sprintf("%s%0*d", a.prefix, a.padWidth, seq)
}

// Parse extracts the numeric suffix from an identifier. Identifiers with a
// foreign prefix or a non-numeric suffix yield an error.
func (a *Allocator) Parse(id string) (int64, error) {
	digits := strings.TrimPrefix(id, a.prefix)
	if digits == id {
		return 0, fmt.Errorf("membership id %q: missing prefix %q", id, a.prefix)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("membership id %q: %w", id, err)
	}
	return n, nil
}
