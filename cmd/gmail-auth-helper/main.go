package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2"

	"xoxo/internal/transport"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: gmail-auth-helper <credentials.json>")
	}

	credentialsData, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read credentials file: %v", err)
	}

	credentials, err := transport.ParseGoogleCredentials(credentialsData)
	if err != nil {
		log.Fatalf("Failed to parse credentials: %v", err)
	}
	config := transport.OAuth2Config(credentials)

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	fmt.Printf("🔗 Gmail OAuth2 Authorization Helper\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("1. Open this URL in your browser:\n")
	fmt.Printf("   %s\n\n", authURL)
	fmt.Printf("2. Authorize xoxo to send mail on your behalf\n")
	fmt.Printf("3. Copy the authorization code and enter it below\n\n")
	fmt.Printf("📝 Enter the authorization code: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Failed to read authorization code: %v", err)
	}

	token, err := config.Exchange(context.Background(), authCode)
	if err != nil {
		log.Fatalf("Failed to exchange code for token: %v", err)
	}
	if token.RefreshToken == "" {
		log.Fatalf("No refresh token returned; revoke the app's access and try again")
	}

	fmt.Printf("\n✅ Successfully obtained tokens!\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("Add these to your .env file:\n\n")
	fmt.Printf("XOXO_TRANSPORT=gmail\n")
	fmt.Printf("GMAIL_CREDENTIALS_JSON_PATH='%s'\n", os.Args[1])
	fmt.Printf("GMAIL_REFRESH_TOKEN='%s'\n", token.RefreshToken)
	fmt.Printf("\nExpires: %v\n", token.Expiry)
}
