package services

import (
	"context"
	"encoding/json"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"clubsphere/internal/config"
)

// InitFirebase initializes the Firebase Admin SDK and returns an auth client.
// A credentials file wins; otherwise the service account is assembled from
// FIREBASE_PROJECT_ID, FIREBASE_CLIENT_EMAIL and FIREBASE_PRIVATE_KEY.
func InitFirebase(ctx context.Context, cfg *config.Config) (*auth.Client, error) {
	opt, err := firebaseCredentials(cfg)
	if err != nil {
		return nil, err
	}

	var fbConfig *firebase.Config
	if cfg.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

func firebaseCredentials(cfg *config.Config) (option.ClientOption, error) {
	if cfg.FirebaseCredentialsPath != "" {
		return option.WithCredentialsFile(cfg.FirebaseCredentialsPath), nil
	}
	if cfg.FirebaseProjectID == "" || cfg.FirebaseClientEmail == "" || cfg.FirebasePrivateKey == "" {
		return nil, errors.New("firebase credentials not configured")
	}

	serviceAccount, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   cfg.FirebaseProjectID,
		"client_email": cfg.FirebaseClientEmail,
		"private_key":  cfg.FirebasePrivateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, err
	}
	return option.WithCredentialsJSON(serviceAccount), nil
}
