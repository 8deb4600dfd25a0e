package model

import "time"

// Code is one issued serial number. The string form is always
// <prefix>.<suffix> where the prefix is the daily bucket (V + YYYYMMDD)
// and the suffix is a positive integer, strictly increasing per prefix.
type Code struct {
	ID        int64     `db:"id"`
	Code      string    `db:"code"`
	CreatedAt time.Time `db:"created_at"`
	UserID    int64     `db:"user_id"`
	// UserName is the owning user's name, hydrated by joined reads for
	// rendering. Not a column of the codes table.
	UserName string `db:"user_name"`
}

// DisplayTime formats CreatedAt for the dashboard: time-of-day for codes
// issued today, full date and time for older ones.
func (c Code) DisplayTime() string {
	now := time.Now()
	local := c.CreatedAt.Local()
	if local.Year() == now.Year() && local.YearDay() == now.YearDay() {
		return local.Format("15:04:05")
	}
	return local.Format("2006-01-02 15:04:05")
}
