package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hivefest.ru/honey-server/internal/clock"
	"hivefest.ru/honey-server/internal/common"
)

var profileColumnNames = []string{
	"user_id", "username", "account_created_at", "collection", "honey", "today_honey",
	"last_daily_reset", "fav_image", "big_prizes", "great_prizes", "good_prizes",
	"played", "total_honey", "question_type", "question_n1", "question_n2",
}

var dailyColumnNames = []string{"honey", "today_honey", "total_honey", "last_daily_reset"}

func newMockRepository(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock), mock
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestRepository_NoRowsMapsToNotFound(t *testing.T) {
	tests := []struct {
		name  string
		query string
		call  func(r *Repository) error
	}{
		{
			name:  "Get",
			query: `(?s)SELECT .+ FROM profiles WHERE user_id = \$1`,
			call: func(r *Repository) error {
				_, err := r.Get(context.Background(), 5)
				return err
			},
		},
		{
			name:  "GetDailyState",
			query: `SELECT honey, today_honey, total_honey, last_daily_reset`,
			call: func(r *Repository) error {
				_, err := r.GetDailyState(context.Background(), 5)
				return err
			},
		},
		{
			name:  "ApplyReward",
			query: `(?s)UPDATE profiles.+RETURNING honey`,
			call: func(r *Repository) error {
				_, err := r.ApplyReward(context.Background(), 5, 25, 25, 25, clock.Date{Year: 2026, Month: time.March, Day: 1})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			mock.ExpectQuery(tt.query).WillReturnError(pgx.ErrNoRows)

			err := tt.call(repo)
			assert.ErrorIs(t, err, common.ErrNotFound)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_CreateDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`INSERT INTO profiles`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := repo.Create(context.Background(), testProfile(1, "bee"))
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateOtherErrorIsWrapped(t *testing.T) {
	repo, mock := newMockRepository(t)
	connErr := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO profiles`).WillReturnError(connErr)

	err := repo.Create(context.Background(), testProfile(1, "bee"))
	assert.ErrorIs(t, err, connErr)
	assert.NotErrorIs(t, err, common.ErrAlreadyExists)
}

func TestRepository_ApplyRewardSingleUpdate(t *testing.T) {
	repo, mock := newMockRepository(t)
	today := clock.Date{Year: 2026, Month: time.March, Day: 14}

	mock.ExpectQuery(`UPDATE profiles\s+SET honey = honey \+ \$2, today_honey = \$3, total_honey = \$4`).
		WithArgs(int64(1), int64(25), int64(65), int64(165), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(dailyColumnNames).
			AddRow(int64(125), int64(65), int64(165), datePtr(2026, time.March, 14)))

	st, err := repo.ApplyReward(context.Background(), 1, 25, 65, 165, today)
	require.NoError(t, err)
	assert.Equal(t, DailyState{Honey: 125, TodayHoney: 65, TotalHoney: 165, LastDailyReset: today}, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ResetAllDaily(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE profiles SET today_honey = 0, last_daily_reset = \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.ResetAllDaily(context.Background(), clock.Date{Year: 2026, Month: time.March, Day: 14})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func profileRow() *pgxmock.Rows {
	return pgxmock.NewRows(profileColumnNames).AddRow(
		int64(1), "bee", time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), []byte(`{"7":2}`),
		int64(40), int64(40), datePtr(2026, time.March, 14), DefaultFavImage,
		int64(0), int64(0), int64(0), int64(3), int64(40), "sum", 2, 2,
	)
}

func TestRepository_UpdateLocksRowAndCommits(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT .+ FROM profiles WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(profileRow())
	mock.ExpectExec(`UPDATE profiles SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	p, err := repo.Update(context.Background(), 1, func(p *Profile) error {
		p.Stats.Played++
		p.Question = Question{Type: "multiplication", N1: 6, N2: 7}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Stats.Played)
	assert.Equal(t, map[string]int{"7": 2}, p.Collection)
	assert.Equal(t, Question{Type: "multiplication", N1: 6, N2: 7}, p.Question)
	assert.Equal(t, clock.Date{Year: 2026, Month: time.March, Day: 14}, p.LastDailyReset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateCallbackErrorRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(1)).WillReturnRows(profileRow())
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 1, func(*Profile) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateMissingProfile(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 9, func(*Profile) error { return nil })
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
