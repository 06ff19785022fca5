package v1

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"sync"
	"time"
)

type exportDownload struct {
	filePath  string
	filename  string
	expiresAt time.Time
}

// exportDownloadStore 导出文件的一次性下载令牌
type exportDownloadStore struct {
	mu    sync.Mutex
	items map[string]exportDownload
}

func newExportDownloadStore() *exportDownloadStore {
	return &exportDownloadStore{
		items: make(map[string]exportDownload),
	}
}

func (s *exportDownloadStore) put(filePath, filename string, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token = newRandomToken(24)
	s.items[token] = exportDownload{
		filePath:  filePath,
		filename:  filename,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

func (s *exportDownloadStore) get(token string) (exportDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[token]
	if !ok {
		return exportDownload{}, false
	}
	if time.Now().After(v.expiresAt) {
		delete(s.items, token)
		_ = os.Remove(v.filePath)
		return exportDownload{}, false
	}
	return v, true
}

func (s *exportDownloadStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

// 过期的导出文件一并删除
func (s *exportDownloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
			_ = os.Remove(v.filePath)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
