package notify

import (
	"context"
	"fmt"
	"strings"

	"crypto-sentinel/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramNotifier pushes signal alerts to a fixed set of chats.
type TelegramNotifier struct {
	sender  messageSender
	chatIDs []int64
}

func NewTelegramNotifier(sender messageSender, chatIDs []int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatIDs: chatIDs}
}

func (n *TelegramNotifier) Deliver(ctx context.Context, sig domain.Signal, persona string) error {
	_ = ctx
	if n == nil || n.sender == nil || len(n.chatIDs) == 0 {
		return nil
	}

	msg := formatSignalMessage(sig, persona)
	var failures []string
	for _, chatID := range n.chatIDs {
		if _, err := n.sender.Send(&tele.Chat{ID: chatID}, msg); err != nil {
			failures = append(failures, fmt.Sprintf("chat %d: %v", chatID, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed sending %d alerts: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}

func formatSignalMessage(sig domain.Signal, persona string) string {
	lines := []string{
		"Breakout signal:",
		sig.WhatHappened,
		sig.WhyItMatters,
		fmt.Sprintf("Posture: %s | Price: $%.2f", sig.SuggestedPosture, sig.CurrentPrice),
	}
	if sig.ConfluenceScore != nil {
		lines = append(lines, fmt.Sprintf("Confluence: %d/4", *sig.ConfluenceScore))
	}
	lines = append(lines, "Persona: "+persona)
	return strings.Join(lines, "\n")
}
