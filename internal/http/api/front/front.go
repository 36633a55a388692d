package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/config"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/http/api/front/handlers"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/models"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/security"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/walletauth"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers public and authenticated front-end routes.
func RegisterFrontRoutes(
	r *gin.Engine,
	db *gorm.DB,
	jwtCfg config.JWTConfig,
	walletCfg config.WalletConfig,
	oracle *walletauth.Oracle,
) {
	if r == nil || db == nil {
		return
	}

	front := r.Group("/v0/front")

	nonces := walletauth.NewNonceStore(db)
	resolver := walletauth.NewIdentityResolver(db, walletCfg.EmailDomain)
	issuer := walletauth.NewSessionIssuer(db, walletCfg.AdminWhitelist)
	authHandler := handlers.NewWalletAuthHandler(nonces, oracle, resolver, issuer, jwtCfg, walletCfg)
	front.POST("/wallet-auth", authHandler.Handle)

	authed := front.Group("")
	authed.Use(sessionAuthMiddleware(db, jwtCfg))

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profile", profileHandler.Get)
}

// sessionAuthMiddleware validates session JWTs and loads the user into context.
func sessionAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseSessionToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if user.Disabled || !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is not active"})
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
