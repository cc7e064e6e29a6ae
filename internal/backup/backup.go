// Package backup uploads encrypted snapshots of the database to
// S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmorneau/carebell/internal/model"
	"github.com/dmorneau/carebell/internal/store"
)

// s3Client is the slice of the S3 API the manager touches, for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3     S3Config
	DBPath string
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status is what the settings page shows about backups.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// Manager encrypts and ships database snapshots on a daily schedule or on
// demand. The passphrase never touches the database; callers supply it per
// run, and the manager keeps it only in memory for the scheduled run.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status

	db       *sql.DB
	backups  *store.BackupStore
	settings *store.SettingsStore
	client   s3Client
	logger   *slog.Logger

	passphrase string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg Config, db *sql.DB, backups *store.BackupStore, settings *store.SettingsStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		db:       db,
		backups:  backups,
		settings: settings,
		logger:   logger,
		status:   Status{State: StateDisabled},
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether S3 credentials are configured.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// CachePassphrase keeps the passphrase in memory so the scheduled run can
// encrypt without operator input.
func (m *Manager) CachePassphrase(passphrase string) {
	m.mu.Lock()
	m.passphrase = passphrase
	m.mu.Unlock()
}

// HasCachedPassphrase reports whether scheduled backups can run.
func (m *Manager) HasCachedPassphrase() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.passphrase != ""
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) checkSchedule(ctx context.Context) {
	now := time.Now().UTC()

	enabled, err := m.settings.Get("backup_enabled")
	if err != nil || enabled != "true" {
		return
	}

	hourStr, _ := m.settings.Get("backup_schedule_hour")
	hour, _ := strconv.Atoi(hourStr)
	if now.Hour() != hour || now.Minute() != 0 {
		return
	}

	m.mu.RLock()
	passphrase := m.passphrase
	m.mu.RUnlock()
	if passphrase == "" {
		m.logger.Warn("backup: skipping scheduled run, passphrase not cached")
		return
	}

	if _, err := m.RunNow(ctx, passphrase); err != nil {
		m.logger.Error("backup: scheduled run failed", "error", err)
	}
}

// RunNow performs one backup: salt lookup, WAL checkpoint, snapshot,
// encrypt, upload, record. It returns the backup record id.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (int64, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	dbPath := m.cfg.DBPath
	m.mu.RUnlock()

	if client == nil {
		return 0, fmt.Errorf("backup not configured: S3 credentials missing")
	}

	saltHex, err := m.settings.Get("backup_passphrase_salt")
	if err != nil {
		return 0, fmt.Errorf("get salt: %w", err)
	}
	if saltHex == "" {
		return 0, fmt.Errorf("backup passphrase not configured")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return 0, fmt.Errorf("decode salt: %w", err)
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	key := fmt.Sprintf("backups/carebell-%s.db.enc", time.Now().UTC().Format("2006-01-02T150405Z"))

	encrypted, err := m.snapshot(ctx, dbPath, passphrase, salt)
	if err != nil {
		m.fail(key, err)
		return 0, err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(encrypted),
	})
	if err != nil {
		err = fmt.Errorf("upload: %w", err)
		m.fail(key, err)
		return 0, err
	}

	record, err := m.backups.Record(key, int64(len(encrypted)), model.BackupStatusCompleted, "")
	if err != nil {
		return 0, fmt.Errorf("record backup: %w", err)
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.CachePassphrase(passphrase)

	retentionDays := 30
	if v, err := m.settings.Get("backup_retention_days"); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retentionDays = n
		}
	}
	if err := m.Cleanup(ctx, retentionDays); err != nil {
		m.logger.Error("backup: retention cleanup", "error", err)
	}

	return record.ID, nil
}

// Cleanup deletes backups older than the retention period, both the
// history rows and the uploaded objects.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil
	}

	before := time.Now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.backups.DeleteOlderThan(before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Error("backup: delete object", "key", key, "error", err)
		}
	}
	return nil
}

func (m *Manager) snapshot(ctx context.Context, dbPath, passphrase string, salt []byte) ([]byte, error) {
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("wal checkpoint: %w", err)
	}
	plaintext, err := os.ReadFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}
	encrypted, err := Encrypt(plaintext, passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return encrypted, nil
}

func (m *Manager) fail(key string, cause error) {
	if _, err := m.backups.Record(key, 0, model.BackupStatusFailed, cause.Error()); err != nil {
		m.logger.Error("backup: record failure", "error", err)
	}
	m.setStatus(Status{State: StateError, Error: cause.Error()})
}

// Restore fetches an uploaded backup object and decrypts it, returning
// the raw database bytes for the operator to install.
func (m *Manager) Restore(ctx context.Context, objectKey, passphrase string) ([]byte, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("backup not configured: S3 credentials missing")
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}

	return Decrypt(buf.Bytes(), passphrase)
}
