package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/postgres"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/facturador-dian/pkg/config"
)

// testPool conecta a DATABASE_URL con el esquema migrado; sin la variable el test se omite.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL no definido: se omiten las pruebas contra PostgreSQL")
	}

	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}
	srcErr, dbErr := m.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	pool, err := postgres.NewPool(context.Background(), config.DBConfig{DatabaseURL: dsn, MaxConns: 20})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createResolution(t *testing.T, pool *pgxpool.Pool, from, to int64) *entity.Resolution {
	t.Helper()
	res := &entity.Resolution{
		Kind:       entity.KindInvoice,
		Prefix:     fmt.Sprintf("IT%d", time.Now().UnixNano()%1_000_000),
		Resolution: "18760000001",
		From:       from,
		To:         to,
		IsActive:   true,
	}
	require.NoError(t, postgres.NewResolutionRepository(pool).Create(context.Background(), res))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM resolutions WHERE id = $1`, res.ID)
	})
	return res
}

// ────────────────────────────────────────────────────────────────────────────
// Numeración concurrente
// ────────────────────────────────────────────────────────────────────────────

func TestAllocateNumber_ParaleloSinRepetidos(t *testing.T) {
	pool := testPool(t)
	res := createResolution(t, pool, 1, 200)
	repo := postgres.NewResolutionRepository(pool)

	const (
		workers = 16
		each    = 15 // 240 intentos sobre 200 números
	)
	var (
		mu        sync.Mutex
		seen      = map[int64]int{}
		exhausted int
	)
	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < each; i++ {
				n, err := repo.AllocateNumber(ctx, res.ID)
				mu.Lock()
				switch {
				case errors.Is(err, domain.ErrRangeExhausted):
					exhausted++
				case err == nil:
					seen[n]++
				}
				mu.Unlock()
				if err != nil && !errors.Is(err, domain.ErrRangeExhausted) {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, seen, 200)
	assert.Equal(t, workers*each-200, exhausted)
	for n := int64(1); n <= 200; n++ {
		assert.Equal(t, 1, seen[n], "número %d asignado %d veces", n, seen[n])
	}

	got, err := repo.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.CurrentNumber)
}

func TestAllocateNumber_AgotadoYNoEncontrado(t *testing.T) {
	pool := testPool(t)
	res := createResolution(t, pool, 10, 10)
	repo := postgres.NewResolutionRepository(pool)
	ctx := context.Background()

	n, err := repo.AllocateNumber(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	_, err = repo.AllocateNumber(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrRangeExhausted)

	_, err = repo.AllocateNumber(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
