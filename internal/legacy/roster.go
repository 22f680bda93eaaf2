package legacy

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"clubreg/internal/config"
	"clubreg/lib/sl"
)

// Roster reads the club's old MySQL member list so it can be moved into the
// document store. Import is one-shot; the MySQL side is never written.
type Roster struct {
	db    *sql.DB
	table string
	log   *slog.Logger
}

// Entry is a row of the legacy roster.
type Entry struct {
	Name     string
	Age      int
	Phone    string
	Email    string
	JoinedAt time.Time
}

func Open(conf config.LegacyConfig, log *slog.Logger) (*Roster, error) {
	if conf.DSN == "" {
		return nil, fmt.Errorf("legacy roster is not configured")
	}
	db, err := sql.Open("mysql", conf.DSN+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return &Roster{
		db:    db,
		table: conf.Table,
		log:   log.With(sl.Module("legacy")),
	}, nil
}

func (r *Roster) Close() {
	_ = r.db.Close()
}

// Entries loads the full roster ordered by joining date, oldest first, so
// re-issued membership ids keep the historical order.
func (r *Roster) Entries() ([]*Entry, error) {
	query := fmt.Sprintf(
		"SELECT name, age, phone, COALESCE(email, ''), joined_at FROM `%s` ORDER BY joined_at",
		r.table,
	)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		if err = rows.Scan(
			&entry.Name,
			&entry.Age,
			&entry.Phone,
			&entry.Email,
			&entry.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
