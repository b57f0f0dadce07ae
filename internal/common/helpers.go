// Package common содержит общие утилиты, используемые во всём проекте:
// форматирование мёда и чисел, построчная блокировка по ID пользователя.
package common

import (
	"fmt"
	"time"
)

// FormatHoney форматирует количество мёда в читабельную строку.
// Пример: FormatHoney(1500) → "1 500 🍯"
func FormatHoney(amount int64) string {
	return fmt.Sprintf("%s 🍯", FormatNumber(amount))
}

// FormatHoneyDelta создаёт строку вида "+25 🍯".
// Ноль тоже выводится со знаком «+»: нулевая награда: не ошибка.
func FormatHoneyDelta(amount int64) string {
	if amount >= 0 {
		return "+" + FormatHoney(amount)
	}
	return FormatHoney(amount)
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}

// FormatDateTime форматирует время в "02.01.2006 15:04" в указанном поясе.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}
