// Package clock отвечает за время: текущий момент, гражданскую дату
// в опорном часовом поясе и границы суток с учётом перехода на летнее время.
package clock

import (
	"fmt"
	"time"
)

// dateLayout: формат гражданской даты в JSON и в логах.
const dateLayout = "2006-01-02"

// Date: гражданская дата (год, месяц, день) без времени и пояса.
// Нулевое значение означает «дата неизвестна».
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf возвращает дату момента t в его собственном поясе.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate разбирает дату в формате 2006-01-02.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("некорректная дата %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String возвращает дату в формате 2006-01-02 (пустая строка для нулевой даты).
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d == Date{}
}

// AddDays сдвигает дату на n календарных дней.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

// Before сообщает, что d раньше other.
func (d Date) Before(other Date) bool {
	return d.UTCMidnight().Before(other.UTCMidnight())
}

// UTCMidnight: полночь этой даты по UTC. Это «наивная» полночь:
// в опорном поясе её ещё нужно сдвинуть на смещение пояса.
func (d Date) UTCMidnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// MarshalText кодирует дату как 2006-01-02.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText разбирает 2006-01-02; пустая строка даёт нулевую дату.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
