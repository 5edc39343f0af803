package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // 纯 Go SQLite driver，注册为 "sqlite"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
)

// Store SQL 数据库存储实现（PostgreSQL、MySQL 5.7+、SQLite）
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB
	driverName string // "postgres" / "mysql" / "sqlite"
}

// NewStore 创建 SQL 数据库存储并执行自动迁移
func NewStore(cfg config.DatabaseConfig) (*Store, error) {
	driverName := cfg.Type
	if driverName == "postgresql" {
		driverName = "postgres"
	}
	if driverName != "mysql" && driverName != "postgres" && driverName != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres, sqlite)", cfg.Type)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数，SQLite 只允许单写连接
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch driverName {
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: db})
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: db})
	case "sqlite":
		dialector = sqlite.Dialector{DriverName: "sqlite", Conn: db}
	}

	gormDB, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	store := &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.PingContext(ctx)
}

// DriverName 返回实际使用的驱动名
func (s *Store) DriverName() string {
	return s.driverName
}

// migrate 执行数据库迁移（使用 GORM AutoMigrate）
func (s *Store) migrate() error {
	return s.gormDB.AutoMigrate(
		&domain.Submission{},
		&domain.MediaAsset{},
	)
}

// InsertMessage 保存留言
func (s *Store) InsertMessage(ctx context.Context, submission *domain.Submission) error {
	if err := s.gormDB.WithContext(ctx).Create(submission).Error; err != nil {
		return domain.NewStoreError("insert message", err)
	}
	return nil
}

// InsertMediaAsset 保存图片记录
func (s *Store) InsertMediaAsset(ctx context.Context, asset *domain.MediaAsset) error {
	if err := s.gormDB.WithContext(ctx).Create(asset).Error; err != nil {
		return domain.NewStoreError("insert media asset", err)
	}
	return nil
}

// ListMediaAssets 按创建时间倒序返回全部图片记录
func (s *Store) ListMediaAssets(ctx context.Context) ([]domain.MediaAsset, error) {
	var assets []domain.MediaAsset
	err := s.gormDB.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&assets).Error
	if err != nil {
		return nil, domain.NewStoreError("list media assets", err)
	}
	return assets, nil
}

// CountSubmissions 统计留言数量
func (s *Store) CountSubmissions(ctx context.Context) (int64, error) {
	var count int64
	if err := s.gormDB.WithContext(ctx).Model(&domain.Submission{}).Count(&count).Error; err != nil {
		return 0, domain.NewStoreError("count submissions", err)
	}
	return count, nil
}
