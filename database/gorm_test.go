package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestGORMLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel(false))
	assert.Equal(t, logger.Error, gormLogLevel(true))
}
