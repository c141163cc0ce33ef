package media

import "context"

// Store хранит бинарные файлы профиля (аватар, обложка) во внешнем сервисе.
type Store interface {
	// Upload загружает локальный файл и возвращает публичный URL.
	Upload(ctx context.Context, localPath, folder string) (string, error)
	// Delete удаляет ранее загруженный файл по его URL.
	Delete(ctx context.Context, url string) error
}
