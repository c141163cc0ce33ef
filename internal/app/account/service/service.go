package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/password"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/jwt"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/media"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	repo "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/repo"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/infra/metrics"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Principal — уже аутентифицированный владелец access-токена.
type Principal struct {
	UserID          primitive.ObjectID
	Username        string
	AccessJTI       string
	AccessExpiresAt time.Time
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.PublicUser, error)
	Login(context.Context, dto.LoginDTO) (model.Session, error)
	Logout(context.Context, Principal) error
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	ChangePassword(context.Context, Principal, dto.ChangePasswordDTO) error
	Authenticate(ctx context.Context, accessToken string) (Principal, model.PublicUser, error)

	CurrentUser(context.Context, primitive.ObjectID) (model.PublicUser, error)
	UpdateAccountDetails(context.Context, primitive.ObjectID, dto.UpdateAccountDTO) (model.PublicUser, error)
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, localPath string) (model.PublicUser, error)
	DeleteAvatar(context.Context, primitive.ObjectID) (model.PublicUser, error)
	UpdateCoverImage(ctx context.Context, id primitive.ObjectID, localPath string) (model.PublicUser, error)
	ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error)
	WatchHistory(context.Context, primitive.ObjectID) ([]model.WatchedVideo, error)
}

type Deps struct {
	Users   repo.UserRepo
	Graph   repo.GraphRepo
	Tokens  repo.TokenRepo
	Cache   repo.ProfileCache
	JWT     jwt.JWTUtil
	Hasher  *password.Hasher
	Media   media.Store
	Log     *zap.Logger
	Metrics *metrics.Metrics
	// Folder — каталог во внешнем хранилище медиа.
	Folder string
}

type accountService struct {
	users   repo.UserRepo
	graph   repo.GraphRepo
	tokens  repo.TokenRepo
	cache   repo.ProfileCache
	jwtUtil jwt.JWTUtil
	hasher  *password.Hasher
	media   media.Store
	v       *validator.Validate
	log     *zap.Logger
	m       *metrics.Metrics
	folder  string
}

func New(d Deps, v *validator.Validate) Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if v == nil {
		v = NewValidator()
	}
	return &accountService{
		users:   d.Users,
		graph:   d.Graph,
		tokens:  d.Tokens,
		cache:   d.Cache,
		jwtUtil: d.JWT,
		hasher:  d.Hasher,
		media:   d.Media,
		v:       v,
		log:     d.Log.Named("account"),
		m:       d.Metrics,
		folder:  d.Folder,
	}
}

// без пробелов и "/", имя попадает в путь /c/:username
var handleRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// NewValidator регистрирует тег "handle" для имён пользователей.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handleRe.MatchString(fl.Field().String())
	})
	return v
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// уникальный индекс по email регистрозависимый, поэтому храним и ищем в нижнем регистре
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
