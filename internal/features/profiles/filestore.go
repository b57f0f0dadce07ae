// filestore.go: хранилище профилей в одном JSON-файле (users.json).
// Формат файла: {"users": {"<telegram id>": {...профиль...}}}.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/common"
)

// fileDocument: корневой объект users.json.
type fileDocument struct {
	Users map[string]*Profile `json:"users"`
}

// FileStore держит все профили в памяти и после каждого изменения
// переписывает файл целиком через временный файл и rename.
//
// Профили внутри карты не меняются на месте: изменение собирается
// на копии и подменяет карту только после успешной записи на диск.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	users map[int64]*Profile
}

// OpenFileStore открывает (или создаёт) файл профилей.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, users: make(map[int64]*Profile)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ошибка создания каталога данных: %w", err)
		}
		if err := s.commit(s.users); err != nil {
			return nil, err
		}
		log.WithField("path", path).Info("Создан пустой файл профилей")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}

	for key, p := range doc.Users {
		if p == nil {
			continue
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.WithField("key", key).Warn("Пропущен профиль с некорректным ID")
			continue
		}
		p.UserID = id
		if p.Collection == nil {
			p.Collection = make(map[string]int)
		}
		s.users[id] = p
	}

	log.WithFields(log.Fields{"path": path, "profiles": len(s.users)}).Info("Профили загружены из файла")
	return s, nil
}

// Create добавляет профиль.
func (s *FileStore) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.UserID]; ok {
		return common.ErrAlreadyExists
	}

	next := s.snapshot()
	next[p.UserID] = p.Clone()
	return s.commit(next)
}

// Get возвращает копию профиля.
func (s *FileStore) Get(_ context.Context, userID int64) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p.Clone(), nil
}

// List возвращает копии всех профилей, упорядоченные по ID.
func (s *FileStore) List(_ context.Context) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Profile, 0, len(s.users))
	for _, p := range s.users {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Count возвращает число профилей.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Update применяет fn к копии профиля и сохраняет её.
func (s *FileStore) Update(_ context.Context, userID int64, fn func(p *Profile) error) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok {
		return nil, common.ErrNotFound
	}

	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.UserID = userID

	next := s.snapshot()
	next[userID] = updated
	if err := s.commit(next); err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// GetDailyState возвращает дневное состояние игрока.
func (s *FileStore) GetDailyState(_ context.Context, userID int64) (DailyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.users[userID]
	if !ok {
		return DailyState{}, common.ErrNotFound
	}
	return p.DailyState(), nil
}

// ApplyReward начисляет награду одной записью файла.
func (s *FileStore) ApplyReward(_ context.Context, userID int64, reward, todayHoney, totalHoney int64, today clock.Date) (DailyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok {
		return DailyState{}, common.ErrNotFound
	}

	updated := current.Clone()
	updated.Honey += reward
	updated.TodayHoney = todayHoney
	updated.Stats.TotalHoney = totalHoney
	updated.LastDailyReset = today

	next := s.snapshot()
	next[userID] = updated
	if err := s.commit(next); err != nil {
		return DailyState{}, err
	}
	return updated.DailyState(), nil
}

// ResetAllDaily обнуляет дневные счётчики у всех игроков.
func (s *FileStore) ResetAllDaily(_ context.Context, today clock.Date) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int64]*Profile, len(s.users))
	for id, p := range s.users {
		updated := p.Clone()
		updated.TodayHoney = 0
		updated.LastDailyReset = today
		next[id] = updated
	}

	if err := s.commit(next); err != nil {
		return 0, err
	}
	return len(next), nil
}

// Close ничего не делает: файл уже записан после каждого изменения.
func (s *FileStore) Close() error { return nil }

// snapshot: поверхностная копия карты профилей.
func (s *FileStore) snapshot() map[int64]*Profile {
	next := make(map[int64]*Profile, len(s.users)+1)
	for id, p := range s.users {
		next[id] = p
	}
	return next
}

// commit записывает карту в файл и только после успеха делает её текущей.
// Вызывается под s.mu.
func (s *FileStore) commit(next map[int64]*Profile) error {
	doc := fileDocument{Users: make(map[string]*Profile, len(next))}
	for id, p := range next {
		doc.Users[strconv.FormatInt(id, 10)] = p
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации профилей: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.json")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // после успешного rename файла уже нет

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи профилей: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка записи профилей: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи профилей: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", s.path, err)
	}

	s.users = next
	return nil
}
