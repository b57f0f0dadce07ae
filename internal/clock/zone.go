package clock

import (
	"fmt"
	"time"

	// База часовых поясов внутри бинарника: в scratch-контейнере её нет.
	_ "time/tzdata"
)

// Zone: опорный часовой пояс, в котором считаются игровые сутки.
type Zone struct {
	loc *time.Location
}

// LoadZone загружает пояс по имени IANA (например, "Europe/Madrid").
// Ошибка фатальна при старте; фиксированное смещение вместо пояса не подставляется.
func LoadZone(name string) (*Zone, error) {
	if name == "" {
		return nil, fmt.Errorf("часовой пояс не задан")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить часовой пояс %q: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

// NewZone оборачивает уже загруженный *time.Location.
func NewZone(loc *time.Location) *Zone {
	return &Zone{loc: loc}
}

// Name возвращает имя пояса.
func (z *Zone) Name() string { return z.loc.String() }

// Location возвращает *time.Location пояса.
func (z *Zone) Location() *time.Location { return z.loc }

// Today возвращает гражданскую дату момента now в этом поясе.
func (z *Zone) Today(now time.Time) Date { return CivilDateIn(z.loc, now) }

// UTCOffsetAt возвращает смещение пояса относительно UTC в момент t.
func (z *Zone) UTCOffsetAt(t time.Time) time.Duration { return UTCOffsetAt(z.loc, t) }

// NextMidnight возвращает момент ближайшей следующей полуночи в поясе.
func (z *Zone) NextMidnight(now time.Time) time.Time { return NextMidnight(z.loc, now) }

// CivilDateIn возвращает дату, которую показывают местные часы пояса loc в момент t.
func CivilDateIn(loc *time.Location, t time.Time) Date {
	return DateOf(t.In(loc))
}

// UTCOffsetAt возвращает смещение «местное время минус UTC» пояса loc в момент t.
func UTCOffsetAt(loc *time.Location, t time.Time) time.Duration {
	_, offset := t.In(loc).Zone()
	return time.Duration(offset) * time.Second
}

// NextMidnight вычисляет момент следующей полуночи в поясе loc.
//
// Алгоритм:
//  1. Берём завтрашнюю гражданскую дату в поясе.
//  2. Строим «наивную» полночь этой даты по UTC.
//  3. Вычитаем смещение пояса, действующее в целевой момент (а не сейчас),
//     поэтому переход на летнее/зимнее время между now и полуночью учитывается.
//  4. Если переход случился между наивной и настоящей полуночью, уточняем
//     смещение ещё раз по найденному моменту.
//
// Если в эти сутки полночи нет (часы перескакивают через 00:00),
// возвращается первый момент завтрашней даты.
func NextMidnight(loc *time.Location, now time.Time) time.Time {
	tomorrow := CivilDateIn(loc, now).AddDays(1)
	guess := tomorrow.UTCMidnight()

	target := guess.Add(-UTCOffsetAt(loc, guess))
	if isMidnightOf(loc, target, tomorrow) {
		return target
	}

	refined := guess.Add(-UTCOffsetAt(loc, target))
	if isMidnightOf(loc, refined, tomorrow) {
		return refined
	}

	return firstInstantOf(loc, tomorrow, target, refined)
}

// isMidnightOf сообщает, что t: ровно 00:00:00 даты day в поясе loc.
func isMidnightOf(loc *time.Location, t time.Time, day Date) bool {
	local := t.In(loc)
	return DateOf(local) == day && local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0
}

// firstInstantOf ищет бинарным поиском (с точностью до секунды) первый момент,
// в который местная дата становится равной day.
func firstInstantOf(loc *time.Location, day Date, candidates ...time.Time) time.Time {
	var hi time.Time
	for _, c := range candidates {
		if CivilDateIn(loc, c) == day && (hi.IsZero() || c.Before(hi)) {
			hi = c
		}
	}
	if hi.IsZero() {
		// Ни один кандидат не попал в нужную дату: доверяемся нормализации time.Date.
		return time.Date(day.Year, day.Month, day.Day, 0, 0, 0, 0, loc)
	}

	lo := hi.Add(-time.Hour)
	for !CivilDateIn(loc, lo).Before(day) {
		lo = lo.Add(-time.Hour)
	}

	loSec, hiSec := lo.Unix(), hi.Unix()
	for hiSec-loSec > 1 {
		mid := loSec + (hiSec-loSec)/2
		if CivilDateIn(loc, time.Unix(mid, 0)) == day {
			hiSec = mid
		} else {
			loSec = mid
		}
	}
	return time.Unix(hiSec, 0).UTC()
}
