package service

import (
	"context"
	"fmt"
	"github.com/minio/minio-go/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"
	"video-tracker/entities"
	"video-tracker/repository"
)

func newTestRepo(t *testing.T) repository.Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	repo := repository.NewRepoWithDB(db)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func seedUser(t *testing.T, repo repository.Repository, id uint64, login, email string) {
	t.Helper()
	user := &entities.User{ID: id, UserLogin: login, UserEmail: email}
	if err := repo.GetDB().Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

type fakeEnrolment struct {
	date  *time.Time
	err   error
	calls int
}

func (f *fakeEnrolment) ResolveEnrolmentDate(context.Context, string) (*time.Time, error) {
	f.calls++
	return f.date, f.err
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) FPutObject(_ context.Context, bucket, object, path string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+object] = b
	f.types[bucket+"/"+object] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: int64(len(b))}, nil
}

func (f *fakeStorage) PresignedGetObject(_ context.Context, bucket, object string, expires time.Duration, _ url.Values) (*url.URL, error) {
	return url.Parse(fmt.Sprintf("https://storage.local/%s/%s?expires=%d", bucket, object, int(expires.Seconds())))
}

type fakePublisher struct {
	messages []interface{}
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, message interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}
