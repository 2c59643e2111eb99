package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

const afroMessageAPIURL = "https://api.afromessage.com/api/send"

// Client — AfroMessage SMS gateway client (or a no-op imitation in dry-run).
type Client struct {
	APIToken string
	Sender   string // optional sender ID
	DryRun   bool
}

type SendSMSResponse struct {
	Acknowledge string `json:"acknowledge"`
	Response    struct {
		MessageID string `json:"message_id"`
	} `json:"response"`
}

func NewClient(apiToken, sender string, dryRun bool) *Client {
	return &Client{APIToken: apiToken, Sender: sender, DryRun: dryRun}
}

// SendSMS delivers one message to an E.164 number (e.g. +2519...).
func (c *Client) SendSMS(to, text string) (*SendSMSResponse, error) {
	// DRY-RUN: no HTTP request
	if c.DryRun || c.APIToken == "" || c.APIToken == "dry-run" {
		log.Printf("[sms][dry-run] to=%s sender=%q text=%q", to, c.Sender, text)
		return &SendSMSResponse{Acknowledge: "success"}, nil
	}

	payload := map[string]string{
		"to":      to,
		"message": text,
	}
	if c.Sender != "" {
		payload["from"] = c.Sender
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, afroMessageAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send SMS request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var result SendSMSResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if result.Acknowledge != "success" {
		return nil, fmt.Errorf("afromessage returned %q", result.Acknowledge)
	}
	return &result, nil
}
