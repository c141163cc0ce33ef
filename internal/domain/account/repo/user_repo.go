package repo

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (primitive.ObjectID, error)

	GetUserByID(ctx context.Context, id primitive.ObjectID) (model.User, error)

	// FindByIdentity ищет по username ИЛИ email; пустое поле в поиске не участвует.
	FindByIdentity(ctx context.Context, username, email string) (model.User, error)

	SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error

	// SetRefreshToken перезаписывает токен без проверки остальных полей;
	// пустая строка удаляет поле.
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error

	// SwapRefreshToken атомарно меняет old на next. Если сохранённое значение
	// отличается от old, возвращает ErrTokenMismatch.
	SwapRefreshToken(ctx context.Context, id primitive.ObjectID, old, next string) error

	UpdateDetails(ctx context.Context, id primitive.ObjectID, fullname, email string) (model.User, error)

	SetAvatar(ctx context.Context, id primitive.ObjectID, url string) (model.User, error)

	SetCoverImage(ctx context.Context, id primitive.ObjectID, url string) (model.User, error)
}
