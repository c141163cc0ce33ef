package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUser_PublicHidesSecrets(t *testing.T) {
	u := User{
		ID:           primitive.NewObjectID(),
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "$argon2id$secret",
		RefreshToken: "refresh-secret",
		WatchHistory: []primitive.ObjectID{primitive.NewObjectID()},
		CreatedAt:    time.Now(),
	}

	raw, err := json.Marshal(u.Public())
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret")
	require.Contains(t, string(raw), u.ID.Hex())
	require.Contains(t, string(raw), u.WatchHistory[0].Hex())
}
