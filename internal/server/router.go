package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Solstice-Labs/HolderPerks/internal/auth"
	"github.com/Solstice-Labs/HolderPerks/internal/ledger"
)

// NewRouter wires the API. Auth routes are open; everything under /api
// requires a bearer session.
func NewRouter(authSvc *auth.Service, ldg *ledger.Ledger, wheel *ledger.Wheel, store ledger.Store, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsCfg.AllowOrigins = allowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	h := &handlers{
		auth:   authSvc,
		ledger: ldg,
		wheel:  wheel,
		store:  store,
		ops:    newOpCounter(),
	}

	router.GET("/health", h.health)

	authGroup := router.Group("/auth")
	authGroup.POST("/challenge", h.issueChallenge)
	authGroup.POST("/verify", h.verifySignature)

	api := router.Group("/api", h.requireSession)
	api.POST("/claim", h.claim)
	api.POST("/spin", h.spin)
	api.GET("/account", h.account)

	return router
}
