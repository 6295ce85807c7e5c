// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "monopoly"

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// SessionTTLSeconds is how long issued session tokens stay valid.
	// Zero means tokens never expire.
	SessionTTLSeconds int
)

// parseSessionTTL reads TOKEN_EXPIRE_TIME (a time.Duration string, or
// "never"/"0"/empty for no expiry) into SessionTTLSeconds.
func parseSessionTTL() {
	raw := os.Getenv("TOKEN_EXPIRE_TIME")
	if raw == "never" || raw == "0" || raw == "" {
		SessionTTLSeconds = 0
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid TOKEN_EXPIRE_TIME %q: %v", raw, err)
	}
	SessionTTLSeconds = int(d.Seconds())
}

// Init generates a fresh ed25519 key pair for this process. Sessions do not
// survive a restart; game seats reconnect with their seat tokens regardless.
func Init() {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		log.Fatalf("failed to generate ed25519 key pair: %v", err)
	}
	parseSessionTTL()
}

// InitFromPath loads a persistent ed25519 key pair so sessions survive
// restarts in multi-instance deployments.
func InitFromPath(privatePath, publicPath string) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}

	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	parseSessionTTL()
	return nil
}

// CreateJWT issues a signed session token for a user ID.
func CreateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": tokenIssuer,
	}
	if SessionTTLSeconds > 0 {
		claims["exp"] = time.Now().Add(time.Duration(SessionTTLSeconds) * time.Second).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a session token and returns the user ID it was
// issued for.
func AuthenticateJWT(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	userID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return userID, nil
}
