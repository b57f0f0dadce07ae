package common

import "sync"

// KeyedMutex: набор мьютексов по ID пользователя.
// Запросы одного пользователя выполняются по очереди, разных: параллельно.
// Неиспользуемые мьютексы удаляются, так что карта не растёт бесконечно.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex создаёт пустой набор блокировок.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedEntry)}
}

// Lock захватывает блокировку для key и возвращает функцию освобождения.
//
//	unlock := locks.Lock(userID)
//	defer unlock()
func (k *KeyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len возвращает число ключей с активными или ожидающими блокировками.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
