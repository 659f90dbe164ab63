// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки леджера (баланс, переводы)
var (
	// ErrInsufficientFunds — недостаточно средств на счёте
	ErrInsufficientFunds = errors.New("недостаточно средств на счёте")
	// ErrUnknownRecipient — получатель перевода не найден в базе
	ErrUnknownRecipient = errors.New("получатель не найден")
	// ErrSelfTransfer — попытка перевести средства самому себе
	ErrSelfTransfer = errors.New("нельзя переводить средства самому себе")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrNotRegistered — пользователь не завершил регистрацию
	ErrNotRegistered = errors.New("сначала завершите регистрацию")
	// ErrNotEnoughCoins — недостаточно бонусных монет для обмена
	ErrNotEnoughCoins = errors.New("недостаточно бонусных монет")
)

// Ошибки игровых залов
var (
	// ErrUnknownStake — нет зала с такой ставкой
	ErrUnknownStake = errors.New("зала с такой ставкой не существует")
	// ErrRoundInProgress — раунд уже идёт, вход закрыт до следующего
	ErrRoundInProgress = errors.New("раунд уже идёт, дождитесь следующего")
	// ErrRoundClosed — раунд уже закрыт (победитель найден или номера кончились)
	ErrRoundClosed = errors.New("раунд уже закрыт")
	// ErrNotInRoom — игрок не входил в этот зал
	ErrNotInRoom = errors.New("вы не входили в этот зал")
	// ErrBoardTaken — эта карточка уже занята другим игроком
	ErrBoardTaken = errors.New("эта карточка уже занята")
	// ErrBadBoardNumber — номер карточки вне диапазона
	ErrBadBoardNumber = errors.New("некорректный номер карточки")
)

// Ошибки проверки бинго
var (
	// ErrNoPatternDetected — отмеченные клетки не образуют выигрышную линию
	ErrNoPatternDetected = errors.New("выигрышная линия не найдена")
	// ErrPatternNotCalled — линия есть, но не все её номера были объявлены
	ErrPatternNotCalled = errors.New("не все номера линии были объявлены")
)

// Ошибки платежей
var (
	// ErrParseFailed — не удалось распознать текст подтверждения платежа
	ErrParseFailed = errors.New("не удалось распознать подтверждение платежа")
	// ErrAmountMismatch — сумма в подтверждении не совпадает с заявленной
	ErrAmountMismatch = errors.New("сумма в подтверждении не совпадает с заявленной")
	// ErrDuplicateReference — этот номер платежа уже был использован
	ErrDuplicateReference = errors.New("этот номер платежа уже был использован")
	// ErrRequestNotPending — заявка уже обработана
	ErrRequestNotPending = errors.New("заявка уже обработана")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
