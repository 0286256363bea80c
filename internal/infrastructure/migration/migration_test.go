package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/keygate-inc/keygate/internal/shared/constants"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

func TestNewManagerStrategyByEnvironment(t *testing.T) {
	log := logger.NewNopLogger()

	assert.Equal(t, "gorm_auto_migrate", NewManager(constants.EnvDevelopment, log).GetStrategy().GetName())
	assert.Equal(t, "gorm_auto_migrate", NewManager("", log).GetStrategy().GetName())
	assert.Equal(t, "goose", NewManager(constants.EnvProduction, log).GetStrategy().GetName())
	assert.Equal(t, "goose", NewManager("TEST", log).GetStrategy().GetName())
}

func TestAutoMigrateCreatesEveryTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	m := NewManager(constants.EnvDevelopment, logger.NewNopLogger())
	require.NoError(t, m.Migrate(db))
	// idempotent
	require.NoError(t, m.Migrate(db))

	for _, table := range []string{
		constants.TableBrands,
		constants.TableProducts,
		constants.TableAPIKeys,
		constants.TableLicenseKeys,
		constants.TableLicenses,
		constants.TableActivations,
		constants.TableIdempotencyRecords,
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(constants.TableActivations, "idx_activations_active_instance"))
}

func TestEmbeddedScripts(t *testing.T) {
	migrations, err := Pending(0)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Equal(t, int64(1), migrations[0].Version)
}
