// Package sms wraps the Twilio REST API behind the notify.Notifier contract.
// Vendor message semantics stay opaque here: the gateway only needs "send
// this text to this number, give me back the SID".
package sms

import (
	"context"
	"fmt"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/earshot-dev/earshot/internal/config"
	"github.com/earshot-dev/earshot/internal/notify"
	"github.com/earshot-dev/earshot/pkg/logger"
)

// TwilioSender dispatches SMS messages through Twilio. It prefers an API
// key/secret pair over the account auth token, and a messaging service SID
// over a bare from number, matching Twilio's own recommendations.
type TwilioSender struct {
	client              *twilio.RestClient
	messagingServiceSID string
	fromNumber          string
	logger              *logger.Logger
}

// NewTwilioSender builds a sender from validated SMS config.
func NewTwilioSender(cfg config.SMSConfig, log *logger.Logger) *TwilioSender {
	params := twilio.ClientParams{}
	if cfg.APIKey != "" && cfg.APISecret != "" {
		params.Username = cfg.APIKey
		params.Password = cfg.APISecret
		params.AccountSid = cfg.AccountSID
	} else {
		params.Username = cfg.AccountSID
		params.Password = cfg.AuthToken
	}

	return &TwilioSender{
		client:              twilio.NewRestClientWithParams(params),
		messagingServiceSID: cfg.MessagingServiceSID,
		fromNumber:          cfg.FromNumber,
		logger:              log.Named("twilio"),
	}
}

// Send creates the message and returns Twilio's message SID.
func (s *TwilioSender) Send(ctx context.Context, req notify.Request) (string, error) {
	params := &openapi.CreateMessageParams{}
	params.SetTo(req.To)
	params.SetBody(req.Body)
	if s.messagingServiceSID != "" {
		params.SetMessagingServiceSid(s.messagingServiceSID)
	} else {
		params.SetFrom(s.fromNumber)
	}

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", &notify.Error{Op: "twilio", Err: err}
	}
	if resp.Sid == nil {
		return "", &notify.Error{Op: "twilio", Err: fmt.Errorf("create message response missing sid")}
	}

	s.logger.Info("SMS dispatched",
		logger.String("sid", *resp.Sid),
		logger.String("to", req.To))

	return *resp.Sid, nil
}
