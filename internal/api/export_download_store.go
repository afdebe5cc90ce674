package api

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"time"

	"github.com/patrickmn/go-cache"
)

type exportDownload struct {
	filePath string
	filename string
	format   string
}

// exportDownloadStore 一次性下载令牌；过期或删除时清理暂存文件
type exportDownloadStore struct {
	items *cache.Cache
}

func newExportDownloadStore(ttl time.Duration) *exportDownloadStore {
	items := cache.New(ttl, ttl)
	items.OnEvicted(func(_ string, v interface{}) {
		if item, ok := v.(exportDownload); ok {
			_ = os.Remove(item.filePath)
		}
	})
	return &exportDownloadStore{items: items}
}

func (s *exportDownloadStore) put(item exportDownload) (token string) {
	token = newRandomToken(24)
	s.items.SetDefault(token, item)
	return token
}

func (s *exportDownloadStore) get(token string) (exportDownload, bool) {
	v, ok := s.items.Get(token)
	if !ok {
		return exportDownload{}, false
	}
	item, ok := v.(exportDownload)
	return item, ok
}

func (s *exportDownloadStore) delete(token string) {
	s.items.Delete(token)
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
