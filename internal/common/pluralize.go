// Package common: pluralize.go содержит склонение русских числительных.
package common

import "fmt"

// Pluralize выбирает форму слова для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, ...)
//   - остальные → many (0, 5-20, 25-30, 100, ...)
func Pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizePlayers возвращает «игрок/игрока/игроков».
func PluralizePlayers(n int64) string {
	return Pluralize(n, "игрок", "игрока", "игроков")
}

// FormatPlayers создаёт строку вида "21 игрок".
func FormatPlayers(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizePlayers(n))
}
