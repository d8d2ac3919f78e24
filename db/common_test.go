package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alwitt/notary/db"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// prepareTestDB create a fresh sqlite database with all tables defined
func prepareTestDB(t *testing.T) db.Client {
	assert := assert.New(t)

	testDB := fmt.Sprintf("/tmp/notary_ut_%s.db", ulid.Make().String())
	log.WithField("db", testDB).Debug("Test database")

	uut, err := db.NewConnection(db.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.Nil(uut.RunSQLInTransaction(context.Background(), db.DefineTables))
	t.Cleanup(func() { _ = uut.Close() })

	return uut
}
