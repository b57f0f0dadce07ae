package postgres

// SQL-миграции встроены в код для упрощения деплоя.
var migrations = []struct {
	version int
	sql     string
}{
	{1, migration001Profiles},
	{2, migration002ProfileIndexes},
}

var migration001Profiles = `
CREATE TABLE IF NOT EXISTS profiles (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    account_created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    collection JSONB NOT NULL DEFAULT '{}'::jsonb,
    honey BIGINT NOT NULL DEFAULT 0,
    today_honey BIGINT NOT NULL DEFAULT 0,
    last_daily_reset DATE,
    fav_image VARCHAR(255) NOT NULL DEFAULT './assets/HiveFest.png',
    big_prizes BIGINT NOT NULL DEFAULT 0,
    great_prizes BIGINT NOT NULL DEFAULT 0,
    good_prizes BIGINT NOT NULL DEFAULT 0,
    played BIGINT NOT NULL DEFAULT 0,
    total_honey BIGINT NOT NULL DEFAULT 0,
    question_type VARCHAR(32) NOT NULL DEFAULT '',
    question_n1 INTEGER NOT NULL DEFAULT 0,
    question_n2 INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW(),
    CONSTRAINT profiles_honey_non_negative CHECK (honey >= 0 AND today_honey >= 0 AND total_honey >= 0)
);
`

var migration002ProfileIndexes = `
CREATE INDEX IF NOT EXISTS idx_profiles_honey ON profiles(honey DESC);
CREATE INDEX IF NOT EXISTS idx_profiles_total_honey ON profiles(total_honey DESC);
`
