package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/glebarez/sqlite"
	"github.com/go-logr/logr"
	_ "github.com/jackc/pgx/v4/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

const sqlitePrefix = "sqlite:"

// Repository defines the interface for data access operations.
// Every method that guards an invariant does so with a single conditional
// write; the boolean result reports whether the guarded row was changed.
type Repository interface {
	// Coupon operations
	CreateTemplate(ctx context.Context, t *models.CouponTemplate) error
	GetTemplate(ctx context.Context, id int64) (*models.CouponTemplate, error)
	CountIssued(ctx context.Context, templateID, ownerID int64) (int, error)
	InsertCoupon(ctx context.Context, c *models.IssuedCoupon) error
	GetCoupon(ctx context.Context, id int64) (*models.IssuedCoupon, error)
	MarkCouponUsed(ctx context.Context, u CouponUse) (bool, error)
	ExpireCoupons(ctx context.Context, now time.Time) (int64, error)

	// Mileage operations
	ApplyMileage(ctx context.Context, e MileageEntry) (*models.MileageTransaction, error)
	GetAccount(ctx context.Context, userID int64) (*models.MileageAccount, error)
	ListTransactions(ctx context.Context, userID int64, newestFirst bool) ([]models.MileageTransaction, error)
	CreateUseRequest(ctx context.Context, req *models.MileageUseRequest) error
	GetUseRequest(ctx context.Context, id int64) (*models.MileageUseRequest, error)
	ConsumeUseRequest(ctx context.Context, u UseRequestConsume) (bool, error)
	AttachUseTransaction(ctx context.Context, requestID, transactionID int64) error
	ExpireUseRequests(ctx context.Context, now time.Time) (int64, error)

	// Settlement operations
	SumCouponDiscounts(ctx context.Context, businessID int64, date string) (int64, error)
	SumMileageUsed(ctx context.Context, businessID int64, date string) (int64, error)
	InsertSettlement(ctx context.Context, s *models.SettlementRequest) error
	GetSettlement(ctx context.Context, id int64) (*models.SettlementRequest, error)
	TransitionSettlement(ctx context.Context, id int64, from, to models.SettlementStatus, changes map[string]interface{}) (bool, error)
	ListSettlements(ctx context.Context, f SettlementFilter) ([]models.SettlementRequest, error)

	// Referral operations
	IncrementReferrals(ctx context.Context, userID int64, at time.Time) error
	GetReferralStat(ctx context.Context, userID int64) (*models.ReferralStat, error)
	ClaimReferralReward(ctx context.Context, userID int64, at time.Time) (bool, error)
	ClaimReferralDiscount(ctx context.Context, userID int64, code string, minReferrals int, at time.Time) (bool, error)

	// Transaction runs fn inside one database transaction. fn receives a
	// Repository bound to that transaction.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// Initialize and close
	Migrate() error
	Close() error
}

// CouponUse carries the fields set together when a coupon is used
type CouponUse struct {
	CouponID   int64
	OwnerID    int64
	BusinessID int64
	Amount     int64
	At         time.Time
	UsedOn     string
}

// MileageEntry describes one ledger movement. Amount is always positive;
// Type decides the sign.
type MileageEntry struct {
	UserID       int64
	Type         models.TransactionType
	Amount       int64
	BusinessID   *int64
	Reason       string
	BusinessDate string
	At           time.Time
}

// UseRequestConsume carries the fields set when a mileage use request is redeemed
type UseRequestConsume struct {
	RequestID  int64
	UserID     int64
	BusinessID int64
	At         time.Time
}

// SettlementFilter narrows ListSettlements. Zero fields match everything.
type SettlementFilter struct {
	BusinessID int64
	Status     models.SettlementStatus
}

// GormRepository implements Repository on top of gorm
type GormRepository struct {
	db  *gorm.DB
	log logr.Logger
}

// New wraps an already opened gorm handle.
func New(db *gorm.DB, log logr.Logger) *GormRepository {
	return &GormRepository{db: db, log: log}
}

// Open connects to the database named by dsn. A "sqlite:" prefix selects an
// embedded SQLite file, anything else is treated as a PostgreSQL URI and
// dialled through the pgx driver.
func Open(dsn string, log logr.Logger) (*GormRepository, error) {
	cfg := &gorm.Config{Logger: newGormLogger(log)}

	var (
		db  *gorm.DB
		err error
	)
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		db, err = gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer; queue on the pool instead of SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := sqlDB.Ping(); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		db, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("open gorm: %w", err)
		}
	}

	return New(db, log), nil
}

// Migrate creates or updates the schema
func (r *GormRepository) Migrate() error {
	err := r.db.AutoMigrate(
		&models.CouponTemplate{},
		&models.IssuedCoupon{},
		&models.MileageAccount{},
		&models.MileageTransaction{},
		&models.MileageUseRequest{},
		&models.SettlementRequest{},
		&models.ReferralStat{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// At most one live settlement per business and day; rejected rows do not count.
	return r.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_settlement_business_date_live
		ON settlement_requests (business_id, settlement_date)
		WHERE status <> 'rejected'
	`).Error
}

// Close closes the database connection
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn atomically. Only transient storage failures are retried;
// a conditional write that changed nothing is a result, not an error, and is
// never seen here.
func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return retry.Do(
		func() error {
			return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return fn(&GormRepository{db: tx, log: r.log})
			})
		},
		retry.RetryIf(isTransient),
		retry.Attempts(3),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			r.log.V(1).Info("retrying transaction", "attempt", n+1, "err", err.Error())
		}),
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrEntityNotFound
	}
	return err
}
