package models

import "time"

// AttendanceRecord является записью прихода и ухода за игровой день.
type AttendanceRecord struct {
	ID                   int64      `json:"id"`
	AccountID            int64      `json:"account_id"`
	DateOfPlay           time.Time  `json:"date_of_play"`
	EntryTime            time.Time  `json:"entry_time"`
	ExitTime             *time.Time `json:"exit_time"`
	DailySessionConsumed bool       `json:"daily_session_consumed"`
}
