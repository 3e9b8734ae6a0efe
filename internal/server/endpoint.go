package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config 指标端点配置
type Config struct {
	// 监听地址，":0" 表示随机端口
	Addr string `yaml:"addr" json:"addr"`

	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`

	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig 返回默认端点配置
func DefaultConfig() Config {
	return Config{
		Addr:            ":9091",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Endpoint serves /metrics and /healthz.
type Endpoint struct {
	server   *http.Server
	listener net.Listener
	errCh    chan error
	config   Config
	logger   *zap.Logger
	mu       sync.RWMutex
	closed   bool
}

// NewEndpoint creates an endpoint for the metrics in gatherer.
func NewEndpoint(gatherer prometheus.Gatherer, config Config, logger *zap.Logger) *Endpoint {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "metrics_endpoint"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(logger),
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Endpoint{
		server: &http.Server{
			Addr:         config.Addr,
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		errCh:  make(chan error, 1),
		config: config,
		logger: logger,
	}
}

// Start listens and serves in the background.
func (e *Endpoint) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("endpoint is closed")
	}
	if e.listener != nil {
		return fmt.Errorf("endpoint already started")
	}

	listener, err := net.Listen("tcp", e.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", e.config.Addr, err)
	}
	e.listener = listener
	e.logger.Info("serving metrics", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := e.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics endpoint failed", zap.Error(err))
			select {
			case e.errCh <- err:
			default:
			}
		}
	}()
	return nil
}

// Shutdown 优雅关闭，重复调用无副作用
func (e *Endpoint) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ShutdownTimeout)
		defer cancel()
	}
	if err := e.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics endpoint: %w", err)
	}
	e.listener = nil
	return nil
}

// Errors returns asynchronous serve errors.
func (e *Endpoint) Errors() <-chan error {
	return e.errCh
}

// Addr is the bound address once started, the configured one before.
func (e *Endpoint) Addr() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.listener != nil {
		return e.listener.Addr().String()
	}
	return e.config.Addr
}
