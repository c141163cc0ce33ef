package password

import (
	"github.com/alexedwards/argon2id"
)

var DefaultParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Hasher struct {
	params *argon2id.Params
	pepper string
}

func NewHasher(pepper string, params *argon2id.Params) *Hasher {
	if params == nil {
		params = DefaultParams
	}
	return &Hasher{params: params, pepper: pepper}
}

func (h *Hasher) Hash(plain string) (string, error) {
	return argon2id.CreateHash(plain+h.pepper, h.params)
}

// Verify возвращает (false, nil) при несовпадении; ошибка — только если
// сохранённый хеш повреждён.
func (h *Hasher) Verify(plain, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plain+h.pepper, hash)
}
