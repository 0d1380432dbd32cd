// Package backend builds the storage, event and OCR collaborators selected
// by the configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/config"
	"conti/internal/ports"
	"conti/internal/receipt/tesseract"
	"conti/internal/receipt/vision"
	"conti/internal/storage"
)

// Result holds the built collaborators. Publisher and Recognizer are nil
// when the feature is disabled.
type Result struct {
	Store      ports.Store
	Publisher  ports.EventPublisher
	Recognizer ports.TextRecognizer

	closers []func() error
}

// Close releases everything in reverse creation order.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory creates backends based on configuration
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create opens the store and the optional collaborators. A store or OCR
// failure is fatal; an unreachable broker only disables event publishing.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, errors.New("app config is nil")
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.DataBackend,
		SQLitePath:  cfg.SQLiteDBPath,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DataBackend, err)
	}
	res := &Result{Store: store}
	res.closers = append(res.closers, store.Close)
	f.logger.Info("Storage ready", "backend", cfg.DataBackend)

	recognizer, err := f.recognizer(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, err
	}
	res.Recognizer = recognizer

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("AMQP unavailable, expense events disabled", "error", err)
		} else {
			res.Publisher = client
			res.closers = append(res.closers, client.Close)
			f.logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	return res, nil
}

func (f *Factory) recognizer(ctx context.Context, cfg *config.Config) (ports.TextRecognizer, error) {
	switch cfg.OCRProvider {
	case "", config.OCRNone:
		f.logger.Info("Receipt OCR disabled")
		return nil, nil
	case config.OCRVision:
		// The client keeps ctx for token refreshes.
		r, err := vision.New(context.WithoutCancel(ctx), cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("create vision recognizer: %w", err)
		}
		f.logger.Info("Receipt OCR ready", "provider", config.OCRVision)
		return r, nil
	case config.OCRTesseract:
		r, err := tesseract.New(cfg.TesseractPath, cfg.TesseractLang)
		if err != nil {
			return nil, fmt.Errorf("create tesseract recognizer: %w", err)
		}
		f.logger.Info("Receipt OCR ready", "provider", config.OCRTesseract, "lang", cfg.TesseractLang)
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", cfg.OCRProvider)
	}
}
