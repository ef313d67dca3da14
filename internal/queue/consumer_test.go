package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestHandleMessageAppendsLine(t *testing.T) {
    path := filepath.Join(t.TempDir(), "nested", "notifications.log")
    for _, ev := range []Event{
        {Type: BookingPaymentRequested, BookingID: "BK-123456789", UserID: 7, Email: "a@b.c", PaymentQR: "uploads/qr.png", OccurredAt: "2026-01-02T03:04:05Z"},
        {Type: OrderConfirmed, OrderID: 42, UserID: 7, Status: "confirmed", TotalAmount: "999", OccurredAt: "2026-01-02T03:05:00Z"},
    } {
        body, err := json.Marshal(ev)
        if err != nil {
            t.Fatal(err)
        }
        if err := handleMessage(body, path); err != nil {
            t.Fatalf("handleMessage: %v", err)
        }
    }
    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatal(err)
    }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 2 {
        t.Fatalf("want 2 lines, got %d: %q", len(lines), data)
    }
    if !strings.Contains(lines[0], "booking_id=BK-123456789") || !strings.Contains(lines[0], "payment_qr=uploads/qr.png") {
        t.Errorf("first line = %q", lines[0])
    }
    if !strings.Contains(lines[1], "order_id=42") || !strings.Contains(lines[1], "total=999") {
        t.Errorf("second line = %q", lines[1])
    }
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
    path := filepath.Join(t.TempDir(), "n.log")
    if err := handleMessage([]byte("{not json"), path); err == nil {
        t.Fatal("expected unmarshal error")
    }
    if err := handleMessage([]byte(`{"user_id":1}`), path); err == nil {
        t.Fatal("expected error for event without type")
    }
    if _, err := os.Stat(path); !os.IsNotExist(err) {
        t.Fatal("nothing should be written for rejected messages")
    }
}
