package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/constants"
	"github.com/tixgate/internal/models"
)

func TestCollaboratorDispatcherDirectFallback(t *testing.T) {
	registration := &fakeRegistrationCompleter{}
	notifier := &fakePaymentNotifier{}
	dispatcher := NewCollaboratorDispatcher(nil, registration, notifier)

	pay := &models.Payment{
		ID:              9,
		OrganizerID:     3,
		MerchantTradeNo: "250301040506ABCD",
		ResourceType:    constants.ResourceTypeEvent,
		ResourceID:      "evt-9",
		FinalAmount:     models.NewMoneyFromInt(120),
		Currency:        "TWD",
		Status:          constants.PaymentStatusCompleted,
	}
	if err := dispatcher.DispatchRegistration(context.Background(), pay); err != nil {
		t.Fatalf("dispatch registration failed: %v", err)
	}
	if err := dispatcher.DispatchNotification(context.Background(), pay, constants.PaymentStatusPending); err != nil {
		t.Fatalf("dispatch notification failed: %v", err)
	}
	if registration.count() != 1 || registration.calls[0].MerchantTradeNo != pay.MerchantTradeNo {
		t.Fatalf("unexpected registration calls: %+v", registration.calls)
	}
	got := notifier.notifications[0]
	if got.Event != constants.PaymentEventCompleted || got.PreviousStatus != constants.PaymentStatusPending || got.Amount != "120.00" {
		t.Fatalf("unexpected notification: %+v", got)
	}

	empty := NewCollaboratorDispatcher(nil, nil, nil)
	if err := empty.DispatchRegistration(context.Background(), pay); err != nil {
		t.Fatalf("missing collaborator should be skipped: %v", err)
	}
	if err := empty.DispatchNotification(context.Background(), pay, ""); err != nil {
		t.Fatalf("missing notifier should be skipped: %v", err)
	}
}

func TestRegistrationClientPostsCompletion(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != registrationCompletePath || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer collab-token" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Idempotency-Key") != "registration:7" {
			t.Errorf("unexpected idempotency key: %q", r.Header.Get("Idempotency-Key"))
		}
		var body RegistrationCompletion
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ResourceID != "evt-7" {
			t.Errorf("unexpected body: %+v %v", body, err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewRegistrationClient(config.CollaboratorConfig{BaseURL: server.URL + "/", Token: "collab-token", TimeoutSeconds: 2})
	if client == nil {
		t.Fatalf("configured client should not be nil")
	}
	err := client.CompleteRegistration(context.Background(), RegistrationCompletion{PaymentID: 7, ResourceID: "evt-7"})
	if err != nil {
		t.Fatalf("complete registration failed: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected one request, got %d", hits)
	}
}

func TestNotificationClientRetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewNotificationClient(config.CollaboratorConfig{BaseURL: server.URL, RetryCount: 1, TimeoutSeconds: 2})
	err := client.NotifyPayment(context.Background(), PaymentNotification{PaymentID: 1, Status: constants.PaymentStatusFailed})
	if !errors.Is(err, ErrCollaboratorRequestFailed) {
		t.Fatalf("server error should fail, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected one retry, got %d requests", hits)
	}

	if NewNotificationClient(config.CollaboratorConfig{}) != nil {
		t.Fatalf("unconfigured client should be nil")
	}
	var disabled *NotificationClient
	if err := disabled.NotifyPayment(context.Background(), PaymentNotification{}); err != nil {
		t.Fatalf("nil client should be a no-op: %v", err)
	}
}
