package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"action_items/internal/db"
	"action_items/internal/migrations"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations (default: list them)")
	flag.Parse()

	names, err := db.MigrationNames(migrations.FS)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	if !*apply {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn, db.PoolOptions{MaxConns: 1})
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, migrations.FS); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("applied %d migrations\n", len(names))
}
