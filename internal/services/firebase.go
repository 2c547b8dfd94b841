package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var (
	// FirebaseApp is the Firebase app instance
	FirebaseApp *firebase.App
	// MessagingClient is the Firebase Cloud Messaging client
	MessagingClient *messaging.Client
	// AuthClient verifies Firebase phone-auth ID tokens
	AuthClient *auth.Client
)

// InitFirebase initializes Firebase Admin SDK
func InitFirebase() error {
	ctx := context.Background()

	// Check if Firebase is configured
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	if serviceAccountPath == "" {
		log.Println("Warning: FIREBASE_SERVICE_ACCOUNT_PATH not set. Push notifications will be disabled.")
		return nil
	}

	// Initialize Firebase app
	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %v", err)
	}

	// Initialize messaging client
	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting messaging client: %v", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return fmt.Errorf("error getting auth client: %v", err)
	}

	FirebaseApp = app
	MessagingClient = client
	AuthClient = authClient

	log.Println("Firebase Cloud Messaging initialized successfully")
	return nil
}

// VerifyPhoneToken verifies a Firebase phone-auth ID token and returns the
// phone number it asserts.
func VerifyPhoneToken(ctx context.Context, idToken string) (string, error) {
	if AuthClient == nil {
		return "", fmt.Errorf("firebase is not configured")
	}

	token, err := AuthClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("invalid firebase token: %v", err)
	}

	phone, _ := token.Claims["phone_number"].(string)
	if phone == "" {
		return "", fmt.Errorf("phone number not found in token")
	}
	return phone, nil
}

// NotificationPayload represents the notification data
type NotificationPayload struct {
	Title      string                 `json:"title"`
	Body       string                 `json:"body"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Image      string                 `json:"image,omitempty"`
	ChannelID  string                 `json:"channelId,omitempty"`  // Android notification channel
	Sound      string                 `json:"sound,omitempty"`      // Custom sound file name
	Icon       string                 `json:"icon,omitempty"`       // Android small icon
	Color      string                 `json:"color,omitempty"`      // Android notification color
	Priority   string                 `json:"priority,omitempty"`   // high, normal, low
	BadgeCount *int                   `json:"badgeCount,omitempty"` // iOS badge count
	Tag        string                 `json:"tag,omitempty"`        // Android notification tag
}

// getAndroidConfig returns Android-specific notification configuration
func getAndroidConfig(payload NotificationPayload) *messaging.AndroidConfig {
	channelID := payload.ChannelID
	if channelID == "" {
		channelID = "carmitra_default"
	}

	sound := payload.Sound
	if sound == "" {
		sound = "default"
	}

	icon := payload.Icon
	if icon == "" {
		icon = "ic_stat_logo"
	}

	color := payload.Color
	if color == "" {
		color = "#1E6FD9" // CarMitra brand color
	}

	priority := messaging.PriorityHigh
	if payload.Priority == "normal" {
		priority = messaging.PriorityDefault
	}

	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:                 sound,
			ChannelID:             channelID,
			Priority:              priority,
			DefaultSound:          sound == "default",
			Icon:                  icon,
			Color:                 color,
			Tag:                   payload.Tag,
			DefaultVibrateTimings: true,
		},
	}
}

// getAPNSConfig returns iOS-specific notification configuration
func getAPNSConfig(payload NotificationPayload) *messaging.APNSConfig {
	sound := payload.Sound
	if sound == "" {
		sound = "default"
	}

	badge := 1
	if payload.BadgeCount != nil {
		badge = *payload.BadgeCount
	}

	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound:            sound,
				Badge:            &badge,
				MutableContent:   true,
				ContentAvailable: true,
			},
		},
	}
}

func payloadDataStrings(data map[string]interface{}) map[string]string {
	dataStrings := make(map[string]string)
	for key, value := range data {
		// Marshal complex types to JSON strings
		switch v := value.(type) {
		case string:
			dataStrings[key] = v
		case int, int64, uint, float64, bool:
			dataStrings[key] = fmt.Sprintf("%v", v)
		default:
			jsonData, err := json.Marshal(v)
			if err != nil {
				log.Printf("Error marshaling data for key %s: %v", key, err)
				continue
			}
			dataStrings[key] = string(jsonData)
		}
	}
	return dataStrings
}

// SendNotificationToToken sends a notification to a specific FCM token
func SendNotificationToToken(ctx context.Context, token string, payload NotificationPayload) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notification.")
		return nil
	}

	message := &messaging.Message{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:  payloadDataStrings(payload.Data),
		Token: token,
	}

	// Add image if provided
	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	// Set Android-specific options
	message.Android = getAndroidConfig(payload)

	// Set iOS-specific options
	message.APNS = getAPNSConfig(payload)

	response, err := MessagingClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending message: %v", err)
	}

	log.Printf("Successfully sent notification to token: %s, response: %s", token, response)
	return nil
}

// SendNotificationToMultipleTokens sends a notification to multiple FCM tokens
func SendNotificationToMultipleTokens(ctx context.Context, tokens []string, payload NotificationPayload) (*messaging.BatchResponse, error) {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping notifications.")
		return nil, nil
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens provided")
	}

	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data:   payloadDataStrings(payload.Data),
		Tokens: tokens,
	}

	// Add image if provided
	if payload.Image != "" {
		message.Notification.ImageURL = payload.Image
	}

	// Set Android-specific options
	message.Android = getAndroidConfig(payload)

	// Set iOS-specific options
	message.APNS = getAPNSConfig(payload)

	response, err := MessagingClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("error sending multicast message: %v", err)
	}

	log.Printf("Successfully sent %d messages, %d failures", response.SuccessCount, response.FailureCount)

	// Log any failures
	if response.FailureCount > 0 {
		for idx, resp := range response.Responses {
			if !resp.Success {
				log.Printf("Failed to send to token %s: %v", tokens[idx], resp.Error)
			}
		}
	}

	return response, nil
}

// SubscribeToTopic subscribes tokens to a topic for targeted messaging
func SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping topic subscription.")
		return nil
	}

	response, err := MessagingClient.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("error subscribing to topic: %v", err)
	}

	log.Printf("Successfully subscribed %d tokens to topic %s, %d failures", response.SuccessCount, topic, response.FailureCount)
	return nil
}

// UnsubscribeFromTopic unsubscribes tokens from a topic
func UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	if MessagingClient == nil {
		log.Println("Warning: Firebase not initialized. Skipping topic unsubscription.")
		return nil
	}

	response, err := MessagingClient.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("error unsubscribing from topic: %v", err)
	}

	log.Printf("Successfully unsubscribed %d tokens from topic %s, %d failures", response.SuccessCount, topic, response.FailureCount)
	return nil
}
