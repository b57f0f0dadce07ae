package questions

import (
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// Generator выдаёт случайные вопросы.
//
//	sum:            1..100 + 1..100
//	subtraction:    1..100 − 1..100, уменьшаемое не меньше вычитаемого
//	multiplication: 1..11 × 1..11
//	division:       (1..11 · n2) ÷ n2, n2 = 1..11
type Generator struct {
	rng honey.Roller
}

// NewGenerator создаёт генератор. Если rng == nil, используется honey.DefaultRoller.
func NewGenerator(rng honey.Roller) *Generator {
	if rng == nil {
		rng = honey.DefaultRoller
	}
	return &Generator{rng: rng}
}

// Next возвращает новый вопрос случайного типа.
func (g *Generator) Next() profiles.Question {
	switch g.rng.IntN(4) {
	case 0:
		return profiles.Question{Type: TypeSum, N1: g.between(1, 100), N2: g.between(1, 100)}
	case 1:
		n1, n2 := g.between(1, 100), g.between(1, 100)
		if n1 < n2 {
			n1, n2 = n2, n1
		}
		return profiles.Question{Type: TypeSubtraction, N1: n1, N2: n2}
	case 2:
		return profiles.Question{Type: TypeMultiplication, N1: g.between(1, 11), N2: g.between(1, 11)}
	default:
		n2 := g.between(1, 11)
		return profiles.Question{Type: TypeDivision, N1: g.between(1, 11) * n2, N2: n2}
	}
}

// between возвращает число из [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}
