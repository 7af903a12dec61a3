package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-platform/database"
	"github.com/yeremiapane/restaurant-platform/qrexport"
	"github.com/yeremiapane/restaurant-platform/qrtoken"
	"github.com/yeremiapane/restaurant-platform/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory database with every service schema.
// A single connection serialises transactions the way row locks would.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.MigrateAll(db))
	return db
}

func newTestCodec(t *testing.T) *qrtoken.Codec {
	t.Helper()
	codec, err := qrtoken.NewCodec([]byte("test-qr-secret"))
	require.NoError(t, err)
	return codec
}

func newTestQRService(t *testing.T, db *gorm.DB) *QRService {
	t.Helper()
	return NewQRService(NewTableRegistry(db), newTestCodec(t), qrexport.NewRenderer(qrexport.MinSize),
		"https://api.example.test", "https://app.example.test")
}

// statementLog records the kind and SQL of every query and update gorm runs,
// in execution order.
type statementLog struct {
	mu    sync.Mutex
	kinds []string
	sql   []string
}

func (sl *statementLog) install(t *testing.T, db *gorm.DB) {
	t.Helper()
	record := func(kind string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			sl.mu.Lock()
			defer sl.mu.Unlock()
			sl.kinds = append(sl.kinds, kind)
			sl.sql = append(sl.sql, tx.Statement.SQL.String())
		}
	}
	cb := db.Callback()
	require.NoError(t, cb.Query().After("gorm:query").Register("test:log_query", record("query")))
	require.NoError(t, cb.Update().After("gorm:update").Register("test:log_update", record("update")))
}

func (sl *statementLog) updates() []string {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	var out []string
	for i, kind := range sl.kinds {
		if kind == "update" {
			out = append(out, sl.sql[i])
		}
	}
	return out
}
