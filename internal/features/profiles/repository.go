// repository.go: хранилище профилей в PostgreSQL (таблица profiles).
// Каждая меняющая операция: один UPDATE либо транзакция с FOR UPDATE.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/common"
)

// uniqueViolation: код ошибки PostgreSQL при нарушении UNIQUE/PRIMARY KEY.
const uniqueViolation = "23505"

const profileColumns = `
	user_id, username, account_created_at, collection, honey, today_honey,
	last_daily_reset, fav_image, big_prizes, great_prizes, good_prizes,
	played, total_honey, question_type, question_n1, question_n2`

// PgxIface: методы пула pgx, которыми пользуется репозиторий.
// Ему удовлетворяют *pgxpool.Pool и мок pgxmock в тестах.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

var _ PgxIface = (*pgxpool.Pool)(nil)

// Repository: реализация Store поверх пула pgx.
type Repository struct {
	db PgxIface
}

// NewRepository создаёт репозиторий профилей.
func NewRepository(db PgxIface) *Repository {
	return &Repository{db: db}
}

// Create вставляет новый профиль.
func (r *Repository) Create(ctx context.Context, p *Profile) error {
	collection, err := encodeCollection(p.Collection)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		p.UserID, p.Username, p.AccountCreatedAt, collection, p.Honey, p.TodayHoney,
		dateParam(p.LastDailyReset), p.FavImage, p.Stats.BigPrizes, p.Stats.GreatPrizes, p.Stats.GoodPrizes,
		p.Stats.Played, p.Stats.TotalHoney, p.Question.Type, p.Question.N1, p.Question.N2,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return nil
}

// Get возвращает профиль по Telegram ID.
func (r *Repository) Get(ctx context.Context, userID int64) (*Profile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}
	return p, nil
}

// List возвращает все профили, упорядоченные по ID.
func (r *Repository) List(ctx context.Context) ([]*Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения профилей: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения профиля: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count возвращает число профилей.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта профилей: %w", err)
	}
	return n, nil
}

// Update блокирует строку профиля, применяет fn и сохраняет все поля.
func (r *Repository) Update(ctx context.Context, userID int64, fn func(p *Profile) error) (*Profile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 FOR UPDATE`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	p.UserID = userID

	collection, err := encodeCollection(p.Collection)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE profiles SET
			username = $2, collection = $3::jsonb, honey = $4, today_honey = $5,
			last_daily_reset = $6, fav_image = $7, big_prizes = $8, great_prizes = $9,
			good_prizes = $10, played = $11, total_honey = $12, question_type = $13,
			question_n1 = $14, question_n2 = $15, updated_at = NOW()
		WHERE user_id = $1
	`,
		userID, p.Username, collection, p.Honey, p.TodayHoney,
		dateParam(p.LastDailyReset), p.FavImage, p.Stats.BigPrizes, p.Stats.GreatPrizes,
		p.Stats.GoodPrizes, p.Stats.Played, p.Stats.TotalHoney, p.Question.Type,
		p.Question.N1, p.Question.N2,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления профиля: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return p, nil
}

// GetDailyState читает только дневные поля профиля.
func (r *Repository) GetDailyState(ctx context.Context, userID int64) (DailyState, error) {
	row := r.db.QueryRow(ctx, `
		SELECT honey, today_honey, total_honey, last_daily_reset
		FROM profiles WHERE user_id = $1
	`, userID)

	state, err := scanDailyState(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailyState{}, common.ErrNotFound
		}
		return DailyState{}, fmt.Errorf("ошибка получения дневного состояния: %w", err)
	}
	return state, nil
}

// ApplyReward начисляет награду одним UPDATE.
func (r *Repository) ApplyReward(ctx context.Context, userID int64, reward, todayHoney, totalHoney int64, today clock.Date) (DailyState, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE profiles
		SET honey = honey + $2, today_honey = $3, total_honey = $4,
			last_daily_reset = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING honey, today_honey, total_honey, last_daily_reset
	`, userID, reward, todayHoney, totalHoney, dateParam(today))

	state, err := scanDailyState(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailyState{}, common.ErrNotFound
		}
		return DailyState{}, fmt.Errorf("ошибка начисления мёда: %w", err)
	}
	return state, nil
}

// ResetAllDaily обнуляет дневные счётчики у всех игроков одним UPDATE.
func (r *Repository) ResetAllDaily(ctx context.Context, today clock.Date) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE profiles SET today_honey = 0, last_daily_reset = $1, updated_at = NOW()
	`, dateParam(today))
	if err != nil {
		return 0, fmt.Errorf("ошибка дневного сброса: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close закрывает пул соединений.
func (r *Repository) Close() error {
	r.db.Close()
	return nil
}

// scanProfile читает строку с колонками profileColumns.
func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p          Profile
		collection []byte
		lastReset  *time.Time
	)
	err := row.Scan(
		&p.UserID, &p.Username, &p.AccountCreatedAt, &collection, &p.Honey, &p.TodayHoney,
		&lastReset, &p.FavImage, &p.Stats.BigPrizes, &p.Stats.GreatPrizes, &p.Stats.GoodPrizes,
		&p.Stats.Played, &p.Stats.TotalHoney, &p.Question.Type, &p.Question.N1, &p.Question.N2,
	)
	if err != nil {
		return nil, err
	}

	p.Collection = make(map[string]int)
	if len(collection) > 0 {
		if err := json.Unmarshal(collection, &p.Collection); err != nil {
			return nil, fmt.Errorf("ошибка разбора коллекции: %w", err)
		}
	}
	if lastReset != nil {
		p.LastDailyReset = clock.DateOf(*lastReset)
	}
	return &p, nil
}

func scanDailyState(row pgx.Row) (DailyState, error) {
	var (
		state     DailyState
		lastReset *time.Time
	)
	if err := row.Scan(&state.Honey, &state.TodayHoney, &state.TotalHoney, &lastReset); err != nil {
		return DailyState{}, err
	}
	if lastReset != nil {
		state.LastDailyReset = clock.DateOf(*lastReset)
	}
	return state, nil
}

// dateParam переводит дату в параметр колонки DATE (NULL для нулевой даты).
func dateParam(d clock.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.UTCMidnight()
	return &t
}

func encodeCollection(c map[string]int) (string, error) {
	if c == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации коллекции: %w", err)
	}
	return string(raw), nil
}
