package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/pkg/config"
)

func TestWithIPv4Host(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "postgres://u:p@127.0.0.1:5432/db", withIPv4Host(ctx, "postgres://u:p@127.0.0.1/db"))
	assert.Equal(t, "postgres://u:p@[::1]:5432/db", withIPv4Host(ctx, "postgres://u:p@[::1]:5432/db"), "IPv6 literal queda igual")
	assert.Equal(t, "%%no-url", withIPv4Host(ctx, "%%no-url"))
}

func TestPoolDSN_DesdeCampos(t *testing.T) {
	dsn := poolDSN(context.Background(), config.DBConfig{
		Host: "127.0.0.1", Port: 5433, User: "fact", Password: "p@ss", DBName: "dian", SSLMode: "disable",
	})
	assert.Contains(t, dsn, "127.0.0.1:5433/dian")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestConfigurePool(t *testing.T) {
	pc, err := pgxpool.ParseConfig("postgres://u:p@127.0.0.1:5432/db")
	require.NoError(t, err)
	configurePool(pc, 0)
	assert.Equal(t, int32(defaultMaxConns), pc.MaxConns)
	assert.Equal(t, ApplicationName, pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)
	assert.NotNil(t, pc.ConnConfig.DialFunc)
}
