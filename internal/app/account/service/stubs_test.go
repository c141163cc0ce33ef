package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	appjwt "github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/jwt"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/password"
	appsvc "github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/service"
	authErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	domainjwt "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/jwt"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/infra/config"
	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type userRepoStub struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]model.User
	calls   int
	failGet error
}

func newUserRepo() *userRepoStub {
	return &userRepoStub{users: make(map[primitive.ObjectID]model.User)}
}

func (u *userRepoStub) CreateUser(_ context.Context, m model.User) (primitive.ObjectID, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	for _, v := range u.users {
		if v.Username == m.Username || v.Email == m.Email {
			return primitive.NilObjectID, authErrors.ErrAlreadyExists
		}
	}
	m.ID = primitive.NewObjectID()
	u.users[m.ID] = m
	return m.ID, nil
}

func (u *userRepoStub) GetUserByID(_ context.Context, id primitive.ObjectID) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.failGet != nil {
		return model.User{}, u.failGet
	}
	v, ok := u.users[id]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	return v, nil
}

func (u *userRepoStub) FindByIdentity(_ context.Context, username, email string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	for _, v := range u.users {
		if (username != "" && v.Username == username) || (email != "" && v.Email == email) {
			return v, nil
		}
	}
	return model.User{}, authErrors.ErrNotFound
}

func (u *userRepoStub) update(id primitive.ObjectID, fn func(*model.User)) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	v, ok := u.users[id]
	if !ok {
		return model.User{}, authErrors.ErrNotFound
	}
	fn(&v)
	u.users[id] = v
	return v, nil
}

func (u *userRepoStub) SetPasswordHash(_ context.Context, id primitive.ObjectID, hash string) error {
	_, err := u.update(id, func(m *model.User) { m.PasswordHash = hash })
	return err
}

func (u *userRepoStub) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	v, ok := u.users[id]
	if !ok {
		return nil
	}
	v.RefreshToken = token
	u.users[id] = v
	return nil
}

func (u *userRepoStub) SwapRefreshToken(_ context.Context, id primitive.ObjectID, old, next string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	v, ok := u.users[id]
	if !ok || v.RefreshToken != old {
		return authErrors.ErrTokenMismatch
	}
	v.RefreshToken = next
	u.users[id] = v
	return nil
}

func (u *userRepoStub) UpdateDetails(_ context.Context, id primitive.ObjectID, fullname, email string) (model.User, error) {
	return u.update(id, func(m *model.User) { m.Fullname, m.Email = fullname, email })
}

func (u *userRepoStub) SetAvatar(_ context.Context, id primitive.ObjectID, url string) (model.User, error) {
	return u.update(id, func(m *model.User) { m.AvatarURL = url })
}

func (u *userRepoStub) SetCoverImage(_ context.Context, id primitive.ObjectID, url string) (model.User, error) {
	return u.update(id, func(m *model.User) { m.CoverImageURL = url })
}

func (u *userRepoStub) stored(id primitive.ObjectID) model.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.users[id]
}

type tokenRepoStub struct {
	mu            sync.Mutex
	accessRevoked map[string]bool
}

func (t *tokenRepoStub) RevokeAccess(_ context.Context, jti string, _ time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accessRevoked[jti] = true
	return nil
}

func (t *tokenRepoStub) IsAccessRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accessRevoked[jti], nil
}

type mediaStub struct {
	mu        sync.Mutex
	n         int
	uploaded  []string
	deleted   []string
	failPaths map[string]bool
}

func (m *mediaStub) Upload(_ context.Context, localPath, folder string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPaths[localPath] {
		return "", errors.New("upstream down")
	}
	m.n++
	url := fmt.Sprintf("https://media.test/%s/%d-%s", folder, m.n, filepath.Base(localPath))
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *mediaStub) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return nil
}

type graphStub struct {
	profiles map[string]model.ChannelProfile
	calls    int
}

func (g *graphStub) ChannelProfile(_ context.Context, username string, _ primitive.ObjectID) (model.ChannelProfile, error) {
	g.calls++
	p, ok := g.profiles[username]
	if !ok {
		return model.ChannelProfile{}, authErrors.ErrNotFound
	}
	return p, nil
}

func (g *graphStub) WatchHistory(_ context.Context, _ primitive.ObjectID) ([]model.WatchedVideo, error) {
	return nil, nil
}

type cacheStub struct {
	items map[string]model.ChannelProfile
}

func (c *cacheStub) key(username string, viewer primitive.ObjectID) string {
	return username + "|" + viewer.Hex()
}

func (c *cacheStub) Get(_ context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, bool, error) {
	p, ok := c.items[c.key(username, viewer)]
	return p, ok, nil
}

func (c *cacheStub) Put(_ context.Context, username string, viewer primitive.ObjectID, p model.ChannelProfile) error {
	c.items[c.key(username, viewer)] = p
	return nil
}

func (c *cacheStub) Invalidate(_ context.Context, username string) error {
	for k := range c.items {
		if len(k) > len(username) && k[:len(username)+1] == username+"|" {
			delete(c.items, k)
		}
	}
	return nil
}

type failingJWT struct{ domainjwt.JWTUtil }

func (failingJWT) GenerateRefreshToken(string) (string, time.Time, string, error) {
	return "", time.Time{}, "", errors.New("hsm unavailable")
}

// expiredJWT отвечает на любой refresh-токен как на просроченный.
type expiredJWT struct{ domainjwt.JWTUtil }

func (expiredJWT) ValidateRefreshToken(string) (domainjwt.RefreshClaims, error) {
	return domainjwt.RefreshClaims{}, authErrors.ErrTokenExpired
}

/* ───────────────────────────── helpers ───────────────────────────── */

type env struct {
	svc    appsvc.Service
	users  *userRepoStub
	tokens *tokenRepoStub
	media  *mediaStub
	graph  *graphStub
	cache  *cacheStub
	jwt    *appjwt.JwtUtilImpl
}

func testJWT(t *testing.T) *appjwt.JwtUtilImpl {
	t.Helper()
	util, err := appjwt.NewJWTUtil(&config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		Issuer:             "test",
		Audience:           "test",
	})
	require.NoError(t, err)
	return util
}

func newEnv(t *testing.T, opts ...func(*appsvc.Deps)) *env {
	t.Helper()
	e := &env{
		users:  newUserRepo(),
		tokens: &tokenRepoStub{accessRevoked: map[string]bool{}},
		media:  &mediaStub{failPaths: map[string]bool{}},
		graph:  &graphStub{profiles: map[string]model.ChannelProfile{}},
		cache:  &cacheStub{items: map[string]model.ChannelProfile{}},
		jwt:    testJWT(t),
	}
	deps := appsvc.Deps{
		Users:  e.users,
		Graph:  e.graph,
		Tokens: e.tokens,
		Cache:  e.cache,
		JWT:    e.jwt,
		Hasher: password.NewHasher("pepper", &argon2id.Params{
			Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
		}),
		Media:  e.media,
		Folder: "avatars",
	}
	for _, o := range opts {
		o(&deps)
	}
	e.svc = appsvc.New(deps, nil)
	return e
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("img"), 0o600))
	return p
}

func requireGone(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, errors.Is(err, os.ErrNotExist), "temp file %s must be removed", path)
}
