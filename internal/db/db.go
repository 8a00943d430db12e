package db

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

// InitPostgres connects the pool backing the performance repository.
// Postgres is optional: without a dsn the tracker falls back to the
// file-backed store.
func InitPostgres(ctx context.Context, dsn string) {
	if dsn == "" {
		log.Println("Postgres disabled, using file-backed performance store")
		return
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping Postgres: %v", err)
	}
	Pool = pool
	log.Println("Connected to Postgres")
}
