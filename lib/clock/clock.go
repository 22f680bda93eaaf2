package clock

import "time"

const layout = "2006-01-02T15:04:05Z"

func Now() string {
	return time.Now().UTC().Format(layout)
}

// ExpiryFrom returns the membership expiry for the given approval time:
// exactly one calendar year later, same month and day. A Feb 29 approval
// normalizes to Mar 1 of the following year.
func ExpiryFrom(approvedAt time.Time) time.Time {
	return approvedAt.AddDate(1, 0, 0)
}

// CardDate formats a timestamp the way the ID-card renderer displays dates.
func CardDate(t time.Time) string {
	return t.UTC().Format("02 Jan 2006")
}
