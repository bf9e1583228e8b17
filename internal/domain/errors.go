package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrTransactionNotFound транзакция не найдена в блокчейне
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransactionFailed транзакция завершилась ошибкой в блокчейне
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidTransactionType транзакция не является переводом на кошелек платформы
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrAmountMismatch оплаченная сумма вне допуска от ожидаемой
	ErrAmountMismatch = errors.New("payment amount mismatch")

	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("internal error")
)

// VerificationError представляет ошибку проверки платежа с контекстом
type VerificationError struct {
	Code        string
	Message     string
	Signature   string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *VerificationError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("verification error [%s]: %s: %v (signature: %s)", e.Code, e.Message, e.OriginalErr, e.Signature)
	}
	return fmt.Sprintf("verification error [%s]: %s (signature: %s)", e.Code, e.Message, e.Signature)
}

// Unwrap возвращает оригинальную ошибку
func (e *VerificationError) Unwrap() error {
	return e.OriginalErr
}

// NewVerificationError создает новую ошибку проверки платежа
func NewVerificationError(code, message, signature string, err error) *VerificationError {
	return &VerificationError{
		Code:        code,
		Message:     message,
		Signature:   signature,
		OriginalErr: err,
	}
}
