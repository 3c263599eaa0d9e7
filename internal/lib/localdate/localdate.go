// Package localdate переводит моменты времени в календарные даты
// в настроенном часовом поясе клуба.
package localdate

import "time"

// Day возвращает полночь календарной даты t в loc.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Yesterday возвращает календарную дату, предшествующую now в loc.
func Yesterday(now time.Time, loc *time.Location) time.Time {
	return Day(now, loc).AddDate(0, 0, -1)
}

// EndOfDay возвращает последний представимый момент дня в loc (23:59:59.999999).
// Микросекундная точность совпадает с точностью timestamp в Postgres.
func EndOfDay(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, loc)
}

// Parse читает дату YYYY-MM-DD в loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}

// Format выводит календарную дату как YYYY-MM-DD.
func Format(day time.Time) string {
	return day.Format("2006-01-02")
}
