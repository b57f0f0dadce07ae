// service.go: выдача вопросов и проверка ответов.
package questions

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/profiles"
)

// Service управляет текущими вопросами игроков.
type Service struct {
	store profiles.Store
	honey *honey.Service
	gen   *Generator
	locks *common.KeyedMutex
}

// NewService создаёт сервис вопросов.
func NewService(store profiles.Store, honeyService *honey.Service, gen *Generator) *Service {
	return &Service{
		store: store,
		honey: honeyService,
		gen:   gen,
		locks: common.NewKeyedMutex(),
	}
}

// Current возвращает текущий вопрос игрока.
// Если вопроса нет или он повреждён, выдаёт новый.
func (s *Service) Current(ctx context.Context, userID int64) (profiles.Question, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return profiles.Question{}, err
	}
	if Valid(p.Question) {
		return p.Question, nil
	}
	return s.rotate(ctx, userID)
}

// Change заменяет вопрос игрока новым.
func (s *Service) Change(ctx context.Context, userID int64) (profiles.Question, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.rotate(ctx, userID)
}

// Answer проверяет ответ. За верный ответ начисляется мёд.
// После любого ответа игрок получает новый вопрос.
func (s *Service) Answer(ctx context.Context, userID int64, answer int) (*AnswerResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !Valid(p.Question) {
		// Отвечать не на что: просто выдаём вопрос.
		if _, err := s.rotate(ctx, userID); err != nil {
			return nil, err
		}
		return nil, common.ErrNoQuestion
	}

	res := &AnswerResult{
		Question: p.Question,
		Given:    answer,
		Expected: Solution(p.Question),
	}
	res.Correct = res.Given == res.Expected

	if res.Correct {
		// Награда, счётчик и новый вопрос пишутся одной записью:
		// при ошибке игрок остаётся с тем же вопросом и без награды.
		next := s.gen.Next()
		reward, err := s.honey.AddHoneyWith(ctx, userID, func(p *profiles.Profile) error {
			p.Question = next
			p.Stats.Played++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка начисления награды: %w", err)
		}
		res.Reward = reward
		res.Next = next
	} else {
		next, err := s.rotate(ctx, userID)
		if err != nil {
			return nil, err
		}
		res.Next = next
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"question": Format(res.Question),
		"correct":  res.Correct,
	}).Debug("Ответ на вопрос")

	return res, nil
}

// rotate сохраняет игроку новый вопрос. Вызывается под замком игрока.
func (s *Service) rotate(ctx context.Context, userID int64) (profiles.Question, error) {
	next := s.gen.Next()
	_, err := s.store.Update(ctx, userID, func(p *profiles.Profile) error {
		p.Question = next
		return nil
	})
	if err != nil {
		return profiles.Question{}, fmt.Errorf("ошибка смены вопроса: %w", err)
	}
	return next, nil
}

// Generator возвращает генератор вопросов (для новых профилей).
func (s *Service) Generator() *Generator { return s.gen }
