/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/luckygas/luckygas/config"
	"github.com/pkg/errors"
)

// DriverIDKey is the gin context key holding the authenticated driver's ID.
const DriverIDKey = "driverID"

// DriverClaims is the JWT payload issued to driver devices. The subject
// carries the driver ID.
type DriverClaims struct {
	jwt.RegisteredClaims
}

// IssueDriverToken mints a signed JWT for a driver device, used by the agent
// on every sync replay.
func IssueDriverToken(driverID string, ttl time.Duration) (string, error) {
	conf, err := config.Fetch()
	if err != nil {
		return "", err
	}
	if conf.Server.JWTSecret == "" {
		return "", errors.New("jwt secret is not configured")
	}

	claims := DriverClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   driverID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			Issuer:    "luckygas",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(conf.Server.JWTSecret))
}

// DriverAuthMiddleware authenticates driver routes with a Bearer JWT and puts
// the driver ID on the context. When secure mode is off the token is still
// parsed if present, so local development keeps working without one.
func DriverAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		conf, err := config.Fetch()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication is not configured"})
			return
		}

		tokenString := extractBearerToken(c)
		if tokenString == "" {
			if !conf.Server.Secure {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required. Use a Bearer token"})
			return
		}

		claims := &DriverClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(conf.Server.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token carries no driver"})
			return
		}

		c.Set(DriverIDKey, claims.Subject)
		c.Next()
	}
}

// DriverFromContext returns the authenticated driver ID, if any.
func DriverFromContext(c *gin.Context) string {
	driverID, _ := c.Get(DriverIDKey)
	id, _ := driverID.(string)
	return id
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
