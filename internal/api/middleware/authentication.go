package middleware

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/cozy-creator/house3d/internal/app"
	"github.com/cozy-creator/house3d/internal/utils/hashutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OwnerIDKey holds the verified identity of the caller in the gin context.
const OwnerIDKey = "owner_id"

func AuthenticationMiddleware(ctx *gin.Context) {
	app := ctx.MustGet("app").(*app.App)
	cfg := app.Config()

	if cfg.DisableAuth {
		ctx.Set(OwnerIDKey, cfg.DefaultOwner)
		ctx.Next()
		return
	}

	authorization := ctx.Request.Header.Get("Authorization")
	apikey := ctx.Request.Header.Get("X-API-Key")

	if apikey != "" {
		apikeyHash := hashutil.Sha3256Hash([]byte(apikey))
		result, err := app.APIKeyRepository.GetAPIKeyWithHash(ctx.Request.Context(), apikeyHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "The provided API key is invalid"})
				return
			}

			app.Logger.Error("Database error while checking API key", zap.Error(err))
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		if result.IsRevoked {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "The provided API key is revoked"})
			return
		}

		ctx.Set(OwnerIDKey, result.OwnerID)
	} else if authorization != "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token based authorization is not allowed"})
		return
	} else {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access"})
		return
	}

	ctx.Next()
}
