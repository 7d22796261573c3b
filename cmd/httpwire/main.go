package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"httpwire/http"
	"httpwire/server"
	"httpwire/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	port := flag.String("port", "", "listening port (falls back to the PORT environment variable)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *port == "" {
		// A .env file is optional; the variable may as well come from the
		// real environment.
		_ = godotenv.Load()
		*port = os.Getenv("PORT")
	}
	if *port == "" {
		*port = "8080"
	}

	l, err := tcp.Listen(":" + *port)
	if err != nil {
		logger.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	srv := server.New(l, logger, clock.New(), handle(logger), server.Options{
		Timeout: server.TimeoutOptions{
			Read:  10 * time.Second,
			Write: 10 * time.Second,
		},
	})
	srv.Start()
	logger.Info("listening", "port", *port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	if err := srv.Close(); err != nil {
		logger.Error("failed to close server", "error", err)
	}
}

// handle logs what the parser extracted and echoes the interesting parts
// back as JSON.
func handle(logger *slog.Logger) server.HandleFunc {
	return func(ctx context.Context, request *http.Request) *http.Response {
		logger.Info("request",
			"method", request.Method,
			"target", request.Target,
			"headers", request.Headers.Len(),
			"body_len", len(request.Body),
		)

		body, err := json.Marshal(map[string]any{
			"method": request.Method,
			"target": request.Target,
		})
		if err != nil {
			return &http.Response{Status: http.StatusInternalServerError}
		}

		return &http.Response{
			Status:  http.StatusOK,
			Headers: []http.Field{{Name: "Content-Type", Value: "application/json"}},
			Body:    body,
		}
	}
}
