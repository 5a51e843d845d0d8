package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const banner = `<html>
    <head>
        <meta name="color-scheme" content="light dark">
    </head>
    <body>
        <pre style="word-wrap: break-word; white-space: pre-wrap;">
Hello World!

This is an ERC-7677 Paymaster Service Proxy.

Send JSON-RPC requests for pm_getPaymasterStubData and pm_getPaymasterData to POST /api/paymaster.
        </pre>
    </body>
</html>`

// Index 返回说明页面
func Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(banner))
}

// Health 存活检查
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
