package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	lg "github.com/Miraines/MoonyAndStarry/account-service/internal/infra/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (a *accountService) Login(ctx context.Context, in dto.LoginDTO) (model.Session, error) {
	in.Username = normalizeUsername(in.Username)
	in.Email = normalizeEmail(in.Email)

	if in.Username == "" && in.Email == "" {
		return model.Session{}, customErrors.NewInvalidArgument("username or email is required")
	}
	if err := a.v.Struct(in); err != nil {
		return model.Session{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.users.FindByIdentity(ctx, in.Username, in.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		a.m.Login("not_found")
		return model.Session{}, customErrors.NewNotFound("user not found")
	case err != nil:
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}

	ok, err := a.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return model.Session{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		a.m.Login("invalid_password")
		a.log.Info("login rejected", lg.HashedIdentity(in.Username+in.Email))
		return model.Session{}, customErrors.ErrInvalidPassword
	}

	pair, err := a.issueTokens(ctx, user)
	if err != nil {
		return model.Session{}, err
	}

	a.m.Login("ok")
	return model.Session{Tokens: pair, User: user.Public()}, nil
}

// issueTokens выпускает пару и сохраняет refresh-токен в записи пользователя,
// вытесняя предыдущую сессию. Любая ошибка сводится к ErrTokenGeneration.
func (a *accountService) issueTokens(ctx context.Context, user model.User) (model.TokenPair, error) {
	pair, err := a.mintPair(user)
	if err != nil {
		return model.TokenPair{}, err
	}
	if err := a.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		a.log.Error("store refresh token", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return model.TokenPair{}, customErrors.ErrTokenGeneration
	}
	return pair, nil
}

func (a *accountService) mintPair(user model.User) (model.TokenPair, error) {
	at, atExp, _, err := a.jwtUtil.GenerateAccessToken(user.ID.Hex(), user.Username)
	if err != nil {
		a.log.Error("generate access token", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return model.TokenPair{}, customErrors.ErrTokenGeneration
	}
	rt, rtExp, _, err := a.jwtUtil.GenerateRefreshToken(user.ID.Hex())
	if err != nil {
		a.log.Error("generate refresh token", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		return model.TokenPair{}, customErrors.ErrTokenGeneration
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}

func (a *accountService) Logout(ctx context.Context, p Principal) error {
	if err := a.users.SetRefreshToken(ctx, p.UserID, ""); err != nil {
		return customErrors.WrapInternal(err, "Logout")
	}
	a.revokeAccess(ctx, p)
	a.m.Logout()
	return nil
}

// revokeAccess заносит текущий access-токен в denylist до его истечения.
// Ошибка не фатальна: токен всё равно короткоживущий.
func (a *accountService) revokeAccess(ctx context.Context, p Principal) {
	if a.tokens == nil || p.AccessJTI == "" {
		return
	}
	if err := a.tokens.RevokeAccess(ctx, p.AccessJTI, p.AccessExpiresAt); err != nil {
		a.log.Warn("revoke access token", zap.String("user_id", p.UserID.Hex()), zap.Error(err))
	}
}

func (a *accountService) ChangePassword(ctx context.Context, p Principal, in dto.ChangePasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.users.GetUserByID(ctx, p.UserID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.NewNotFound("user not found")
	case err != nil:
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	ok, err := a.hasher.Verify(in.OldPassword, user.PasswordHash)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	if !ok {
		return customErrors.ErrInvalidPassword
	}

	hash, err := a.hasher.Hash(in.NewPassword)
	if err != nil {
		a.log.Error("hash password", zap.Error(err))
		return customErrors.WrapInternal(errors.New("password hashing failed"), "ChangePassword")
	}
	if err := a.users.SetPasswordHash(ctx, p.UserID, hash); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}

	// После смены пароля старая сессия не должна жить: требуем повторный вход.
	if err := a.users.SetRefreshToken(ctx, p.UserID, ""); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	a.revokeAccess(ctx, p)
	return nil
}

func (a *accountService) Authenticate(ctx context.Context, accessToken string) (Principal, model.PublicUser, error) {
	if strings.TrimSpace(accessToken) == "" {
		return Principal{}, model.PublicUser{}, customErrors.NewUnauthorized("unauthorized request")
	}

	claims, err := a.jwtUtil.ValidateAccessToken(accessToken)
	if err != nil {
		return Principal{}, model.PublicUser{}, customErrors.ErrInvalidToken
	}

	if a.tokens != nil {
		revoked, err := a.tokens.IsAccessRevoked(ctx, claims.ID)
		if err != nil {
			return Principal{}, model.PublicUser{}, customErrors.WrapInternal(err, "Authenticate")
		}
		if revoked {
			return Principal{}, model.PublicUser{}, customErrors.ErrInvalidToken
		}
	}

	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return Principal{}, model.PublicUser{}, customErrors.ErrInvalidToken
	}
	user, err := a.users.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return Principal{}, model.PublicUser{}, customErrors.ErrInvalidToken
	case err != nil:
		return Principal{}, model.PublicUser{}, customErrors.WrapInternal(err, "Authenticate")
	}

	p := Principal{
		UserID:    user.ID,
		Username:  user.Username,
		AccessJTI: claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.AccessExpiresAt = claims.ExpiresAt.Time
	}
	return p, user.Public(), nil
}
