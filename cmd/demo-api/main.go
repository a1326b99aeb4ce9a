// Демо-бэкенд Product API для локального запуска витрины
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

var (
	port         int
	envelope     string
	fixturesPath string
	productsPath string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "demo-api",
	Short: "Демо Product API на YAML-фикстурах",
	Long: `Отдает каталог стройматериалов в одной из форм ответа (bare, data, flat).
Понимает только page, limit и search по названию товара.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().IntVarP(&port, "port", "p", 8090, "порт HTTP-сервера")
	rootCmd.Flags().StringVarP(&envelope, "envelope", "e", envelopeFlat, "форма ответа: bare | data | flat")
	rootCmd.Flags().StringVarP(&fixturesPath, "fixtures", "f", "", "YAML с товарами; по умолчанию встроенный каталог")
	rootCmd.Flags().StringVar(&productsPath, "path", "/api/products", "путь списка товаров")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "уровень логирования")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	log, err := logger.NewZapLogger(logLevel, false)
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}

	products, err := loadFixtures(fixturesPath)
	if err != nil {
		return err
	}

	demo, err := newDemoServer(products, envelope, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           demo.routes(productsPath),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Демо Product API запущен",
			interfaces.LogField{Key: "address", Value: server.Addr},
			interfaces.LogField{Key: "envelope", Value: envelope},
			interfaces.LogField{Key: "products", Value: len(products)},
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
