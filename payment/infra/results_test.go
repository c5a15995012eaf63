package infra

import (
	"context"
	"testing"
	"time"

	cacheapp "storefront-gateway/cache/application"
	"storefront-gateway/payment/domain"
	"storefront-gateway/secure"
)

func TestChargeResultCache_RoundTrip(t *testing.T) {
	svc := cacheapp.New(nil)
	defer svc.Destroy()

	rc := &ChargeResultCache{Cache: svc, TTL: time.Minute}
	ctx := context.Background()

	res := domain.ChargeResult{Approved: true, TransactionID: "tx-1", AuthCode: "123456"}
	rc.Save(ctx, "order-1", res)

	got, ok := rc.Lookup(ctx, "order-1")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got != res {
		t.Fatalf("expected %+v, got %+v", res, got)
	}

	if _, ok := rc.Lookup(ctx, "order-2"); ok {
		t.Fatalf("expected miss for unknown order")
	}
}

func TestChargeResultCache_EncryptedRoundTrip(t *testing.T) {
	svc := cacheapp.New(nil)
	defer svc.Destroy()

	key, err := secure.ParseKey("000102030405060708090a0b0c0d0e0f")
	if err != nil {
		t.Fatalf("key: %v", err)
	}

	rc := &ChargeResultCache{Cache: svc, TTL: time.Minute, Key: key}
	ctx := context.Background()

	res := domain.ChargeResult{Approved: true, TransactionID: "tx-1"}
	rc.Save(ctx, "order-1", res)

	// no cache só existe o blob cifrado, nunca o resultado em claro
	var raw string
	if !svc.Get(ctx, "order:order-1", &raw, cacheapp.WithNamespace("payments")) {
		t.Fatalf("expected sealed blob in cache")
	}
	if raw == "" || raw == "tx-1" {
		t.Fatalf("expected ciphertext, got %q", raw)
	}

	got, ok := rc.Lookup(ctx, "order-1")
	if !ok || got.TransactionID != "tx-1" {
		t.Fatalf("expected decrypted result, got %+v (hit=%v)", got, ok)
	}
}

func TestChargeResultCache_WrongKeyIsMiss(t *testing.T) {
	svc := cacheapp.New(nil)
	defer svc.Destroy()

	key1, _ := secure.ParseKey("000102030405060708090a0b0c0d0e0f")
	key2, _ := secure.ParseKey("ffffffffffffffffffffffffffffffff")

	ctx := context.Background()
	(&ChargeResultCache{Cache: svc, Key: key1}).Save(ctx, "order-1", domain.ChargeResult{Approved: true})

	if _, ok := (&ChargeResultCache{Cache: svc, Key: key2}).Lookup(ctx, "order-1"); ok {
		t.Fatalf("expected miss when sealed with a different key")
	}
}
