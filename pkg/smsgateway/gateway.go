package smsgateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Gateway represents an SMS gateway interface
type Gateway interface {
	SendSMS(ctx context.Context, msisdn, message string) (string, error)
}

// HTTPGateway posts messages to an HTTP SMS provider. Each request carries a
// short-lived bearer token signed with the API key.
type HTTPGateway struct {
	BaseURL    string
	APIKey     string
	Sender     string
	httpClient *http.Client
}

// MockGateway logs messages instead of sending them
type MockGateway struct {
	Name string
}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(baseURL, apiKey, sender string, timeout time.Duration) Gateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Sender:  sender,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewMockGateway creates a new Mock SMS gateway
func NewMockGateway(name string) Gateway {
	return &MockGateway{Name: name}
}

// SendSMS sends an SMS through the provider and returns its message id
func (g *HTTPGateway) SendSMS(ctx context.Context, msisdn, message string) (string, error) {
	token, err := jwt.Issue([]byte(g.APIKey), g.Sender, "sms", time.Minute, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}

	jsonBody, err := json.Marshal(map[string]interface{}{
		"phoneNumber": msisdn,
		"message":     message,
		"sender":      g.Sender,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return response.MessageID, nil
}

// SendSMS simulates a send
func (g *MockGateway) SendSMS(ctx context.Context, msisdn, message string) (string, error) {
	msgID := fmt.Sprintf("%s-MOCK-MSG-%d", g.Name, time.Now().UnixNano())
	logger.Info("mock sms", zap.String("gateway", g.Name), zap.String("msisdn", msisdn), zap.String("messageId", msgID), zap.String("message", message))
	return msgID, nil
}
