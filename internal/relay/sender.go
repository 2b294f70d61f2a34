package relay

import (
	"context"
	"errors"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SentMessage is what the provider tells us about an accepted message.
type SentMessage struct {
	Sid    string
	Status string
}

// Sender delivers a text to the shopkeeper.
type Sender interface {
	Send(ctx context.Context, body string) (SentMessage, error)
}

// TwilioSender sends WhatsApp messages through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	to     string
}

func NewTwilioSender(accountSID, authToken, from, to string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from, to: to}
}

func (s *TwilioSender) Send(ctx context.Context, body string) (SentMessage, error) {
	if err := ctx.Err(); err != nil {
		return SentMessage{}, err
	}
	if s.from == "" || s.to == "" {
		return SentMessage{}, errors.New("whatsapp sender or recipient is not configured")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(s.to)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return SentMessage{}, err
	}

	var msg SentMessage
	if resp.Sid != nil {
		msg.Sid = *resp.Sid
	}
	if resp.Status != nil {
		msg.Status = *resp.Status
	}
	return msg, nil
}
