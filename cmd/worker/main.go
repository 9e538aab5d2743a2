package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/address-completer/app/bootstrap"
	"go.uber.org/zap"
)

func main() {
	input := flag.String("input", "-", "file with one address per line, - for stdin")
	output := flag.String("output", "-", "NDJSON output file, - for stdout")
	appConfig := flag.String("config", "config/app.yaml", "infrastructure config")
	parserConfig := flag.String("parser-config", "config/parser.yaml", "parser tuning config")
	flag.Parse()

	settings, err := bootstrap.LoadSettings(*appConfig, *parserConfig)
	if err != nil {
		panic(err)
	}

	logger, err := bootstrap.NewLogger(settings.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.NewStack(ctx, settings, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer stack.Close()

	in, closeIn, err := openInput(*input)
	if err != nil {
		logger.Fatal("Cannot open input", zap.Error(err))
	}
	defer closeIn()

	out, closeOut, err := openOutput(*output)
	if err != nil {
		logger.Fatal("Cannot open output", zap.Error(err))
	}
	defer closeOut()

	logger.Info("Starting batch worker", zap.String("input", *input), zap.String("output", *output))
	start := time.Now()

	processed, err := stack.Addresses.ProcessBatch(ctx, in, out)
	if err != nil {
		logger.Error("Batch stopped", zap.Int("processed", processed), zap.Error(err))
		return
	}

	logger.Info("Worker finished",
		zap.Int("processed", processed),
		zap.Duration("elapsed", time.Since(start)),
		zap.Any("gateway", stack.Gateway.Stats()))
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
