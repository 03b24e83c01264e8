package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/securepath-labs/compliance-service/internal/config"
	"github.com/securepath-labs/compliance-service/internal/services"
)

// CasdoorAuthMiddleware validates bearer tokens against the identity
// provider and provisions the local user record on first sight.
type CasdoorAuthMiddleware struct {
	client   *casdoorsdk.Client
	identity services.IdentityService
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, identity services.IdentityService) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Application,
		cfg.Organization,
	)

	return &CasdoorAuthMiddleware{
		client:   client,
		identity: identity,
	}
}

// AuthMiddleware authenticates the request and syncs the user record.
// Role decisions stay in the services; this layer only establishes WHO is
// calling, never what they may do.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed authorization header",
			})
			c.Abort()
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
			})
			c.Abort()
			return
		}

		subjectID := claims.Id
		if subjectID == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Token carries no subject",
			})
			c.Abort()
			return
		}

		// Provision on first sign-in; refresh profile fields after.
		user, err := cam.identity.SyncUser(c.Request.Context(), subjectID, claims.User.DisplayName, claims.User.Email)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Failed to resolve user",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
