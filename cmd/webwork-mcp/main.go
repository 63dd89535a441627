package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"webwork-assist/internal/config"
	"webwork-assist/internal/manager"
	"webwork-assist/internal/serviceutil"
	"webwork-assist/internal/tools"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/server"
)

var version = "dev"

func getenv(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func main() {
	configPath := flag.String("config", ".env", "A .env file or a json5 config file with the class credentials.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	tel, t := initTelemetry(ctx, getenv("LOG_LEVEL", "INFO"))
	defer t.Shutdown(context.Background())

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	m, err := manager.New(cfg, tel)
	if err != nil {
		serviceutil.Fatal("init manager", err)
	}
	mcpServer := tools.NewServer(tools.New(m, tel), version)

	if os.Getenv("ENV") != "PROD" {
		slog.Info("serving tools over stdio", "classes", m.Classes())
		stdio := server.NewStdioServer(mcpServer)
		stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))
		err = stdio.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && ctx.Err() == nil {
			serviceutil.Fatal("serve stdio", err)
		}
		return
	}

	addr := fmt.Sprintf("%s:%s", getenv("HOST", "0.0.0.0"), getenv("PORT", "8000"))
	router := serviceutil.NewRouter(os.Getenv("ACCESS_TOKEN"), tel, func(r chi.Router) {
		r.Handle("/mcp", server.NewStreamableHTTPServer(mcpServer))
	})
	err = serviceutil.ServeHttp(ctx, addr, router)
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}
