package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"erc7677-proxy/chains"
	"erc7677-proxy/config"
	"erc7677-proxy/controllers"
	"erc7677-proxy/logger"
	"erc7677-proxy/metrics"
	"erc7677-proxy/paymaster"
	"erc7677-proxy/routes"
	"erc7677-proxy/store"
)

func main() {
	config.LoadEnv() // 加载环境变量

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// 指标，未启用时不注册 /metrics
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg)
		gatherer = reg
	}

	// 审计存储
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("Failed to open sponsorship store: %v", err)
	}
	defer st.Close()

	// 上游 paymaster 客户端
	// 所有请求都发往同一个上游，放宽每个 host 的空闲连接数
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	client := paymaster.NewClient(cfg.PaymasterServiceURL, cfg.UpstreamTimeout,
		paymaster.WithHTTPClient(httpClient),
		paymaster.WithMetrics(recorder),
	)
	defer client.Close()

	paymasterController := controllers.NewPaymasterController(cfg, chains.Default(), client, st, zapLogger, recorder)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(zapLogger))

	// 初始化路由
	routes.SetupRouter(r, gatherer)
	routes.SetupPaymasterRouter(r, paymasterController)

	zapLogger.Info("erc7677 proxy listening", map[string]any{
		"port":        cfg.Port,
		"storeDriver": cfg.StoreDriver,
		"metrics":     cfg.MetricsEnabled,
	})

	// 运行服务器
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
