// Package questions: арифметические вопросы, за верные ответы на которые
// начисляется мёд.
package questions

import (
	"fmt"

	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// Типы вопросов.
const (
	TypeSum            = "sum"
	TypeSubtraction    = "subtraction"
	TypeMultiplication = "multiplication"
	TypeDivision       = "division"
)

// AnswerResult: итог ответа на вопрос.
type AnswerResult struct {
	Question profiles.Question   `json:"question"` // На что отвечали
	Given    int                 `json:"given"`
	Expected int                 `json:"expected"`
	Correct  bool                `json:"correct"`
	Reward   *honey.RewardResult `json:"reward,omitempty"` // Только для верного ответа
	Next     profiles.Question   `json:"next"`             // Следующий вопрос
}

// Valid сообщает, что вопрос можно решить.
func Valid(q profiles.Question) bool {
	switch q.Type {
	case TypeSum, TypeSubtraction, TypeMultiplication:
		return true
	case TypeDivision:
		return q.N2 != 0
	default:
		return false
	}
}

// Solution возвращает правильный ответ. Деление целочисленное.
func Solution(q profiles.Question) int {
	switch q.Type {
	case TypeSum:
		return q.N1 + q.N2
	case TypeSubtraction:
		return q.N1 - q.N2
	case TypeMultiplication:
		return q.N1 * q.N2
	case TypeDivision:
		if q.N2 == 0 {
			return 0
		}
		return q.N1 / q.N2
	default:
		return 0
	}
}

// Symbol: знак операции для показа игроку.
func Symbol(questionType string) string {
	switch questionType {
	case TypeSum:
		return "+"
	case TypeSubtraction:
		return "−"
	case TypeMultiplication:
		return "×"
	case TypeDivision:
		return "÷"
	default:
		return "?"
	}
}

// Format возвращает вопрос в виде «12 × 7».
func Format(q profiles.Question) string {
	return fmt.Sprintf("%d %s %d", q.N1, Symbol(q.Type), q.N2)
}
