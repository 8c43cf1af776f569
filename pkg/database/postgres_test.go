package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/bbsmart-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "registrar", Password: "pw", Name: "bbsmart", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=registrar password=pw dbname=bbsmart sslmode=disable", dsn)
}
