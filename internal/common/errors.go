// Package common: errors.go определяет ошибки, общие для всех модулей.
// Обработчики сравнивают их через errors.Is и отдают пользователю
// понятное сообщение вместо текста внутренней ошибки.
package common

import "errors"

// Ошибки профилей и хранилища
var (
	// ErrNotFound: профиль не найден (или исчез между чтением и записью)
	ErrNotFound = errors.New("профиль не найден")
	// ErrAlreadyExists: профиль с таким ID уже есть
	ErrAlreadyExists = errors.New("профиль уже существует")
)

// Ошибки вопросов и лидерборда
var (
	// ErrInvalidAnswer: ответ не число или вне допустимого диапазона
	ErrInvalidAnswer = errors.New("ответ должен быть целым числом")
	// ErrNoQuestion: у игрока не было вопроса; новый уже выдан
	ErrNoQuestion = errors.New("вопроса не было, держи новый")
	// ErrUnknownMetric: неизвестная метрика лидерборда
	ErrUnknownMetric = errors.New("неизвестная метрика")
)

// Ошибки доступа
var (
	// ErrNotAdmin: пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword: неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts: слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrInvalidToken: веб-токен отсутствует, подделан или истёк
	ErrInvalidToken = errors.New("недействительный токен")
)
