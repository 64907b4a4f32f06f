package readapi

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type fakeBackend struct {
	searchStatus int
	searchBody   []byte
	searchErr    error

	scrollStatus int
	scrollBody   []byte
	scrollErr    error
}

func (b *fakeBackend) Search(ctx context.Context, index string, body []byte, scroll string) (int, []byte, error) {
	return b.searchStatus, b.searchBody, b.searchErr
}

func (b *fakeBackend) ScrollContinue(ctx context.Context, scrollID, scroll string) (int, []byte, error) {
	return b.scrollStatus, b.scrollBody, b.scrollErr
}

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (k *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = value
	return nil
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
