package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInternal        = errors.New("internal error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAlreadyExists   = errors.New("already exists")
	ErrMediaUpload     = errors.New("media upload failed")

	// Причины 401, различимые внутри сервиса.
	ErrInvalidPassword = fmt.Errorf("%w: invalid password", ErrUnauthorized)
	ErrInvalidToken    = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired    = fmt.Errorf("%w: token expired", ErrUnauthorized)

	// ErrTokenMismatch возвращает хранилище, когда сохранённый refresh-токен
	// уже не совпадает с предъявленным.
	ErrTokenMismatch = errors.New("refresh token mismatch")

	ErrTokenGeneration = fmt.Errorf("%w: something went wrong while generating tokens", ErrInternal)
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func NewUnauthorized(msg string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
}

func NewNotFound(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func WrapMediaUpload(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrMediaUpload, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsTokenExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

func IsInvalidPassword(err error) bool {
	return errors.Is(err, ErrInvalidPassword)
}

func IsMediaUpload(err error) bool {
	return errors.Is(err, ErrMediaUpload)
}
