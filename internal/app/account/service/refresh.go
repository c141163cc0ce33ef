package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RefreshFailure классифицирует причину отказа в ротации. Наружу все причины
// отдаются как ErrUnauthorized, различие остаётся в логах и метриках.
type RefreshFailure int

const (
	RefreshFailureNone RefreshFailure = iota
	RefreshFailureMalformed
	RefreshFailureExpired
	RefreshFailureUserMissing
	RefreshFailureReused
	RefreshFailureStore
	RefreshFailureIssue
)

func (f RefreshFailure) String() string {
	switch f {
	case RefreshFailureNone:
		return "ok"
	case RefreshFailureMalformed:
		return "malformed"
	case RefreshFailureExpired:
		return "expired"
	case RefreshFailureUserMissing:
		return "user_missing"
	case RefreshFailureReused:
		return "reused"
	case RefreshFailureStore:
		return "store"
	case RefreshFailureIssue:
		return "issue"
	default:
		return "unknown"
	}
}

func (f RefreshFailure) message() string {
	switch f {
	case RefreshFailureExpired:
		return "refresh token expired"
	case RefreshFailureReused:
		return "refresh token expired or already used"
	default:
		return "invalid refresh token"
	}
}

// RefreshError несёт внутреннюю причину; errors.Is(err, ErrUnauthorized) == true.
type RefreshError struct {
	Kind  RefreshFailure
	Cause error
}

func (e *RefreshError) Error() string {
	return customErrors.ErrUnauthorized.Error() + ": " + e.Kind.message()
}

func (e *RefreshError) Unwrap() error {
	return customErrors.ErrUnauthorized
}

func (a *accountService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	raw := strings.TrimSpace(in.RefreshToken)
	if raw == "" {
		a.m.Refresh("missing")
		return model.TokenPair{}, customErrors.NewInvalidArgument("refresh token is required")
	}

	pair, kind, cause := a.rotate(ctx, raw)
	a.m.Refresh(kind.String())
	if kind == RefreshFailureNone {
		return pair, nil
	}

	fields := []zap.Field{zap.Stringer("reason", kind)}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	if kind == RefreshFailureStore || kind == RefreshFailureIssue {
		a.log.Error("refresh failed", fields...)
	} else {
		a.log.Info("refresh rejected", fields...)
	}
	return model.TokenPair{}, &RefreshError{Kind: kind, Cause: cause}
}

// rotate проверяет токен и атомарно заменяет его новым. Старый токен
// становится непригодным в момент успешного SwapRefreshToken.
func (a *accountService) rotate(ctx context.Context, raw string) (model.TokenPair, RefreshFailure, error) {
	claims, err := a.jwtUtil.ValidateRefreshToken(raw)
	switch {
	case customErrors.IsTokenExpired(err):
		return model.TokenPair{}, RefreshFailureExpired, err
	case err != nil:
		return model.TokenPair{}, RefreshFailureMalformed, err
	}

	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return model.TokenPair{}, RefreshFailureMalformed, err
	}

	user, err := a.users.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, RefreshFailureUserMissing, err
	case err != nil:
		return model.TokenPair{}, RefreshFailureStore, err
	}

	// Быстрый отказ без выпуска токенов; окончательное решение принимает Swap.
	if user.RefreshToken != raw {
		return model.TokenPair{}, RefreshFailureReused, nil
	}

	pair, err := a.mintPair(user)
	if err != nil {
		return model.TokenPair{}, RefreshFailureIssue, err
	}

	err = a.users.SwapRefreshToken(ctx, user.ID, raw, pair.RefreshToken)
	switch {
	case errors.Is(err, customErrors.ErrTokenMismatch):
		return model.TokenPair{}, RefreshFailureReused, err
	case err != nil:
		return model.TokenPair{}, RefreshFailureStore, err
	}
	return pair, RefreshFailureNone, nil
}
