package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/profile-service/internal/blob"
	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/internal/repository"
)

// pngBytes renders a small solid-colour PNG.
func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type memBlob struct {
	data    []byte
	modTime time.Time
}

type fakeBlobStore struct {
	mu       sync.Mutex
	blobs    map[string]memBlob
	writes   int
	deletes  int
	readyErr error
	writeErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string]memBlob)}
}

func (f *fakeBlobStore) EnsureReady(context.Context) error { return f.readyErr }

func (f *fakeBlobStore) Exists(_ context.Context, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[hash]
	return ok, nil
}

func (f *fakeBlobStore) Read(_ context.Context, hash string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[hash]
	if !ok {
		return nil, &domain.StoreError{Store: "blob", Op: "read", Err: blob.ErrNotFound}
	}
	return append([]byte(nil), b.data...), nil
}

func (f *fakeBlobStore) Write(_ context.Context, hash string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.blobs[hash] = memBlob{data: append([]byte(nil), data...), modTime: time.Now()}
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.blobs, hash)
	return nil
}

func (f *fakeBlobStore) List(context.Context) ([]blob.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]blob.BlobInfo, 0, len(f.blobs))
	for h, b := range f.blobs {
		out = append(out, blob.BlobInfo{Hash: h, Key: "avatars/" + h + ".jpg", Size: int64(len(b.data)), LastModified: b.modTime})
	}
	return out, nil
}

func (f *fakeBlobStore) age(hash string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.blobs[hash]
	b.modTime = b.modTime.Add(-d)
	f.blobs[hash] = b
}

type fakeAvatarRepo struct {
	mu        sync.Mutex
	records   map[string]domain.AvatarRecord
	upsertErr error
	deleteErr error
}

func newFakeAvatarRepo() *fakeAvatarRepo {
	return &fakeAvatarRepo{records: make(map[string]domain.AvatarRecord)}
}

func (f *fakeAvatarRepo) GetByUserID(_ context.Context, userID string) (*domain.AvatarRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[userID]
	if !ok {
		return nil, repository.ErrAvatarNotFound
	}
	return &r, nil
}

func (f *fakeAvatarRepo) Upsert(_ context.Context, record *domain.AvatarRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.records[record.UserID] = *record
	return nil
}

func (f *fakeAvatarRepo) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, userID)
	return nil
}

func (f *fakeAvatarRepo) CountByHash(_ context.Context, hash string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.records {
		if r.ContentHash == hash {
			n++
		}
	}
	return n, nil
}

type fakeProfileClient struct {
	mu           sync.Mutex
	images       map[string][]byte // userID -> image bytes
	profileCalls int
	bytesCalls   int
	profileErr   error
	delay        time.Duration
}

func newFakeProfileClient() *fakeProfileClient {
	return &fakeProfileClient{images: make(map[string][]byte)}
}

func (f *fakeProfileClient) FetchProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if _, ok := f.images[userID]; !ok {
		return nil, &domain.RemoteFetchError{URL: "/users/" + userID, StatusCode: 404}
	}
	return &domain.Profile{Email: userID + "@reqres.in", Avatar: "https://img.example/" + userID}, nil
}

func (f *fakeProfileClient) FetchBytes(_ context.Context, rawURL string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bytesCalls++
	userID := rawURL[len("https://img.example/"):]
	return append([]byte(nil), f.images[userID]...), nil
}

func (f *fakeProfileClient) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profileCalls, f.bytesCalls
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     []*domain.User
	nextID    int
	findErr   error
	insertErr error
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*domain.User
	for _, u := range f.users {
		if u.Email == email {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, repository.ErrEmailExists
		}
	}
	f.nextID++
	created := *user
	created.ID = fmt.Sprintf("user-%d", f.nextID)
	created.CreatedAt = time.Now()
	f.users = append(f.users, &created)
	return &created, nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) SendConfirmation(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

type emitted struct {
	topic   string
	key     string
	payload any
}

type fakeEmitter struct {
	events []emitted
	err    error
}

func (f *fakeEmitter) Emit(_ context.Context, topic, key string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, emitted{topic: topic, key: key, payload: payload})
	return nil
}
