package clock

import "time"

// Clock возвращает текущий момент. В тестах подменяется фиксированными часами.
type Clock interface {
	Now() time.Time
}

// System: часы процесса.
type System struct{}

// Now возвращает time.Now().
func (System) Now() time.Time { return time.Now() }

// Func адаптирует функцию к интерфейсу Clock.
type Func func() time.Time

// Now вызывает f.
func (f Func) Now() time.Time { return f() }
