package routes

import (
	"github.com/gin-gonic/gin"

	"erc7677-proxy/controllers"
)

func SetupPaymasterRouter(r *gin.Engine, paymasterController *controllers.PaymasterController) {
	r.POST("/api/paymaster", paymasterController.HandlePaymaster)
}
