// check-conn verifies connectivity to a target database using the same dial
// path as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"queryproxy/internal/core"
	"queryproxy/internal/service"
)

func main() {
	host := flag.String("host", "127.0.0.1", "Database host")
	port := flag.Int("port", 3306, "Database port")
	user := flag.String("user", "", "Database user")
	pass := flag.String("pass", "", "Database password")
	name := flag.String("db", "", "Database name")
	flag.Parse()

	if *user == "" || *name == "" {
		fmt.Println("Usage: check-conn -host <host> -port <port> -user <user> -pass <pass> -db <name>")
		os.Exit(1)
	}

	cfg := &core.TenantConfig{
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *pass,
		Database: *name,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := service.OpenTenantPool(ctx, cfg)
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	pool.Close()

	fmt.Printf("OK: connected to %s:%d/%s\n", *host, *port, *name)
}
