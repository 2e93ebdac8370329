package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderPersonalNotification(t *testing.T) {
	n := CapsuleNotification{
		CapsuleTitle:   "New Year 2030",
		CapsuleMessage: "Dear future me",
		SenderName:     "ana",
		CreatedDate:    "January 2, 2026",
		IsPersonal:     true,
		ImageURLs:      []string{"https://media.test/a.jpg"},
	}

	subject, html, text, err := renderCapsuleNotification(n, "https://quivio.test")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if subject != "🎉 Your Memory Capsule 'New Year 2030' Has Opened!" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(html, "Hello ana!") {
		t.Error("personal greeting missing from html")
	}
	if !strings.Contains(html, "https://quivio.test/timeline") {
		t.Error("timeline link missing for personal capsule")
	}
	if strings.Contains(html, "From:") {
		t.Error("personal email should not name a sender")
	}
	if !strings.Contains(text, "Dear future me") {
		t.Error("message missing from text part")
	}
}

func TestRenderSharedNotification(t *testing.T) {
	n := CapsuleNotification{
		CapsuleTitle:   "Surprise",
		CapsuleMessage: "happy birthday",
		SenderName:     "ana",
		CreatedDate:    "March 1, 2026",
		VideoURLs:      []string{"https://media.test/v.mp4"},
	}

	subject, html, text, err := renderCapsuleNotification(n, "https://quivio.test")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if subject != "🎁 ana Sent You a Memory Capsule!" {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(html, "Hello!") || strings.Contains(html, "Hello ana!") {
		t.Error("shared capsule should use the generic greeting")
	}
	if !strings.Contains(html, "Watch Video 1") {
		t.Error("video link missing")
	}
	if !strings.Contains(text, "Video 1: https://media.test/v.mp4") {
		t.Error("video url missing from text part")
	}
}

func TestDisabledMailerReturnsErrDisabled(t *testing.T) {
	m := NewSMTPMailer("", "587", "", "", "Quivio", "https://quivio.test", true)

	err := m.SendCapsuleNotification(context.Background(), "a@x.com", CapsuleNotification{})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}

	// Explicitly disabled wins even with full credentials.
	m = NewSMTPMailer("smtp.test", "587", "u", "p", "Quivio", "https://quivio.test", false)
	if err := m.SendCapsuleNotification(context.Background(), "a@x.com", CapsuleNotification{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestBuildMessageIsMultipartAlternative(t *testing.T) {
	m := NewSMTPMailer("smtp.test", "587", "noreply@quivio.test", "p", "Quivio", "https://quivio.test", true)

	msg, err := m.buildMessage("to@x.com", "Subject", "plain", "<b>html</b>")
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}

	s := string(msg)
	for _, want := range []string{
		"From: Quivio <noreply@quivio.test>",
		"To: to@x.com",
		"Content-Type: multipart/alternative",
		"plain",
		"<b>html</b>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
