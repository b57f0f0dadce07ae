package middleware

import (
	"context"
	"sync"
	"time"
)

// FailureTracker считает неудачные попытки (неверный токен, неверный пароль)
// по ключу клиента и выдаёт растущую задержку перед ответом.
//
// Счётчик живёт window с момента последней неудачи. Карта ограничена
// maxEntries: при переполнении вытесняется самая давняя запись.
type FailureTracker struct {
	mu         sync.Mutex
	entries    map[string]failureEntry
	step       time.Duration
	maxDelay   time.Duration
	window     time.Duration
	maxEntries int
	now        func() time.Time
}

type failureEntry struct {
	count int
	last  time.Time
}

// NewFailureTracker создаёт трекер: задержка step за каждую неудачу,
// но не больше maxDelay.
func NewFailureTracker(step, maxDelay, window time.Duration, maxEntries int) *FailureTracker {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	return &FailureTracker{
		entries:    make(map[string]failureEntry),
		step:       step,
		maxDelay:   maxDelay,
		window:     window,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Fail записывает неудачу и возвращает число неудач в окне.
func (f *FailureTracker) Fail(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	e, ok := f.entries[key]
	if !ok || f.expired(e, now) {
		e = failureEntry{}
		if !ok && len(f.entries) >= f.maxEntries {
			f.evictOldest()
		}
	}
	e.count++
	e.last = now
	f.entries[key] = e
	return e.count
}

// Failures возвращает число неудач ключа в текущем окне.
func (f *FailureTracker) Failures(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[key]
	if !ok || f.expired(e, f.now()) {
		return 0
	}
	return e.count
}

// Delay: задержка для ключа: step × число неудач, не больше maxDelay.
func (f *FailureTracker) Delay(key string) time.Duration {
	d := time.Duration(f.Failures(key)) * f.step
	if d > f.maxDelay {
		return f.maxDelay
	}
	return d
}

// Wait выдерживает задержку ключа или выходит по отмене ctx.
func (f *FailureTracker) Wait(ctx context.Context, key string) error {
	d := f.Delay(key)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset забывает неудачи ключа (после успешного входа).
func (f *FailureTracker) Reset(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
}

// Purge удаляет просроченные записи. Вызывается планировщиком.
func (f *FailureTracker) Purge() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	removed := 0
	for key, e := range f.entries {
		if f.expired(e, now) {
			delete(f.entries, key)
			removed++
		}
	}
	return removed
}

// Len: сколько ключей сейчас отслеживается.
func (f *FailureTracker) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *FailureTracker) expired(e failureEntry, now time.Time) bool {
	return now.Sub(e.last) > f.window
}

// evictOldest удаляет запись с самой давней неудачей. Вызывается под f.mu.
func (f *FailureTracker) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, e := range f.entries {
		if !found || e.last.Before(oldest) {
			oldestKey, oldest, found = key, e.last, true
		}
	}
	if found {
		delete(f.entries, oldestKey)
	}
}
