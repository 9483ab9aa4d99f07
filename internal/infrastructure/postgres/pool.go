package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturador-dian/pkg/config"
)

// ApplicationName aparece en pg_stat_activity para distinguir las estaciones.
const ApplicationName = "facturador-dian"

const (
	defaultMaxConns = 10
	pingTimeout     = 5 * time.Second
)

var errNoIPv4 = errors.New("sin dirección IPv4")

// NewPool abre el pool de la base de facturación. Los NUMERIC se leen como decimal.Decimal
// y las conexiones salen por IPv4 cuando el host la tiene.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(poolDSN(ctx, cfg))
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	configurePool(pc, cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// poolDSN DATABASE_URL con el host ya resuelto a IPv4, o el DSN armado desde DB_*.
func poolDSN(ctx context.Context, cfg config.DBConfig) string {
	if cfg.DatabaseURL != "" {
		return withIPv4Host(ctx, cfg.DatabaseURL)
	}
	if ip, err := lookupIPv4(ctx, cfg.Host); err == nil {
		cfg.Host = ip
	}
	return cfg.DSN()
}

func configurePool(pc *pgxpool.Config, maxConns int) {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	pc.MaxConns = int32(maxConns)
	pc.MinConns = 1
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute

	pc.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	pc.ConnConfig.DialFunc = dialIPv4
	pc.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
}

// dialIPv4 en contenedores sin IPv6 el host puede resolver solo a AAAA; se prefiere tcp4.
func dialIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := lookupIPv4(ctx, host)
	if err != nil {
		return d.DialContext(ctx, network, addr)
	}
	return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
}

// lookupIPv4 resolver del sistema y, si no da una A, DNS público.
func lookupIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil {
			return "", errNoIPv4
		}
		return host, nil
	}
	if ip, err := firstIPv4(ctx, net.DefaultResolver, host); err == nil {
		return ip, nil
	}
	public := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "udp", "8.8.8.8:53")
		},
	}
	return firstIPv4(ctx, public, host)
}

func firstIPv4(ctx context.Context, r *net.Resolver, host string) (string, error) {
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", errNoIPv4
}

// withIPv4Host reemplaza el host de la URL por su IPv4; ante cualquier error la deja igual.
func withIPv4Host(ctx context.Context, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	ip, err := lookupIPv4(ctx, u.Hostname())
	if err != nil {
		return raw
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String()
}
