package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Username      string               `bson:"username"`
	Email         string               `bson:"email"`
	Fullname      string               `bson:"fullname"`
	AvatarURL     string               `bson:"avatar"`
	CoverImageURL string               `bson:"coverImage"`
	WatchHistory  []primitive.ObjectID `bson:"watchHistory"`
	PasswordHash  string               `bson:"password"`
	RefreshToken  string               `bson:"refreshToken,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

// PublicUser — проекция пользователя без пароля и refresh-токена.
type PublicUser struct {
	ID            string    `json:"_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Fullname      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	WatchHistory  []string  `json:"watchHistory"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	history := make([]string, 0, len(u.WatchHistory))
	for _, id := range u.WatchHistory {
		history = append(history, id.Hex())
	}
	return PublicUser{
		ID:            u.ID.Hex(),
		Username:      u.Username,
		Email:         u.Email,
		Fullname:      u.Fullname,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		WatchHistory:  history,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       primitive.ObjectID
}

// Session — результат входа: пара токенов и публичные данные пользователя.
type Session struct {
	Tokens TokenPair
	User   PublicUser
}

type ChannelProfile struct {
	ID                        primitive.ObjectID `bson:"_id" json:"_id"`
	Fullname                  string             `bson:"fullname" json:"fullname"`
	Username                  string             `bson:"username" json:"username"`
	Email                     string             `bson:"email" json:"email"`
	AvatarURL                 string             `bson:"avatar" json:"avatar"`
	CoverImageURL             string             `bson:"coverImage" json:"coverImage"`
	SubscribersCount          int                `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int                `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool               `bson:"isSubscribed" json:"isSubscribed"`
	CreatedAt                 time.Time          `bson:"createdAt" json:"createdAt"`
}

type VideoOwner struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Fullname  string             `bson:"fullname" json:"fullname"`
	Username  string             `bson:"username" json:"username"`
	AvatarURL string             `bson:"avatar" json:"avatar"`
}

type WatchedVideo struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	Owner       *VideoOwner        `bson:"owner,omitempty" json:"owner,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
