// Command chimera-example emits a stream of structured records until
// interrupted, demonstrating the asynchronous pipeline and its graceful
// shutdown. Set CHIMERA_LOG_LOCAL=true to watch the records on stdout
// instead of shipping them to Firehose.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimera "github.com/tcpport0/chimera-logging"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := chimera.New(
		chimera.WithTag(getEnv("CHIMERA_TAG", "chimera-example")),
		chimera.WithEnvironment(getEnv("ENVIRONMENT", "dev")),
	)
	defer logger.Close()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	logger.Info("example starting", chimera.WithFields(map[string]any{
		"pid": os.Getpid(),
	}))

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ticker.C:
			n++
			logger.Info(fmt.Sprintf("heartbeat %d", n), chimera.WithFields(map[string]any{
				"sequence": n,
			}))

			if n%10 == 0 {
				logger.Warning("sequence checkpoint", chimera.WithMeta(map[string]any{
					"component": "example",
				}))
			}
			if n%25 == 0 {
				logger.Exception("simulated failure", fmt.Errorf("heartbeat %d rejected", n))
			}

		case <-ctx.Done():
			log.Println("Shutting down...")
			logger.Info("example stopping", chimera.WithFields(map[string]any{
				"emitted": n,
			}))
			// deferred Close flushes whatever is still buffered
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
