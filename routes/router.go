package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"erc7677-proxy/controllers"
)

// SetupRouter 注册首页、健康检查；gatherer 不为空时注册 /metrics
func SetupRouter(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/", controllers.Index)
	r.GET("/health", controllers.Health)

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}
