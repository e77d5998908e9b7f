package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Lotes-api/pkg/config"
)

// NewPool abre el pool del libro de lotes. Usa DATABASE_URL si está definido; si no, arma el DSN con DB_*.
// El host se resuelve a IPv4 cuando es posible.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	dsn := cfg.ConnectionString()
	if cfg.DatabaseURL != "" {
		dsn = urlWithIPv4(cfg.DatabaseURL)
	} else if ipv4, err := lookupIPv4(ctx, cfg.Host); err == nil {
		withIP := cfg
		withIP.Host = ipv4
		dsn = withIP.DSN()
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolCfg.ConnConfig.DialFunc = dialIPv4

	poolCfg.MaxConns = int32(cfg.MaxConns)
	if poolCfg.MaxConns <= 0 {
		poolCfg.MaxConns = 10
	}
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 15 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	// Cantidades y títulos (NUMERIC) se leen como decimal.Decimal.
	poolCfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

func dialIPv4(ctx context.Context, network, addr string) (net.Conn, error) {
	var d net.Dialer
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ipv4, err := lookupIPv4(ctx, host)
	if err != nil {
		return d.DialContext(ctx, network, addr)
	}
	return d.DialContext(ctx, "tcp4", net.JoinHostPort(ipv4, port))
}

// lookupIPv4 devuelve la primera dirección IPv4 del host. Si el resolver del sistema no da ninguna
// (contenedores sin IPv6 que solo reciben AAAA), se consulta un DNS público.
func lookupIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", fmt.Errorf("%s es IPv6", host)
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
	return "", fmt.Errorf("%s sin IPv4", host)
}

func urlWithIPv4(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	ipv4, err := lookupIPv4(context.Background(), u.Hostname())
	if err != nil {
		return raw
	}
	u.Host = net.JoinHostPort(ipv4, port)
	return u.String()
}
