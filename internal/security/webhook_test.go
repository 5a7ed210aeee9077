package security

import (
	"encoding/base64"
	"errors"
	"strconv"
	"testing"
	"time"
)

func testVerifier(t *testing.T) *WebhookVerifier {
	t.Helper()
	secret := "whsec_" + base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	v, err := NewWebhookVerifier(secret)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	return v
}

func TestVerify_RoundTrip(t *testing.T) {
	v := testVerifier(t)
	body := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	now := time.Now()

	sig := v.Sign("msg_1", now, body)
	ts := strconv.FormatInt(now.Unix(), 10)

	if err := v.Verify(body, "msg_1", ts, sig); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	v := testVerifier(t)
	now := time.Now()
	sig := v.Sign("msg_1", now, []byte(`{"a":1}`))
	ts := strconv.FormatInt(now.Unix(), 10)

	err := v.Verify([]byte(`{"a":2}`), "msg_1", ts, sig)
	if !errors.Is(err, ErrNoMatchingSignature) {
		t.Fatalf("want ErrNoMatchingSignature, got %v", err)
	}
}

func TestVerify_WrongMessageID(t *testing.T) {
	v := testVerifier(t)
	body := []byte(`{}`)
	now := time.Now()
	sig := v.Sign("msg_1", now, body)
	ts := strconv.FormatInt(now.Unix(), 10)

	if err := v.Verify(body, "msg_2", ts, sig); !errors.Is(err, ErrNoMatchingSignature) {
		t.Fatalf("want ErrNoMatchingSignature, got %v", err)
	}
}

func TestVerify_Timestamps(t *testing.T) {
	v := testVerifier(t)
	body := []byte(`{}`)

	old := time.Now().Add(-SignatureTolerance - time.Minute)
	err := v.Verify(body, "m", strconv.FormatInt(old.Unix(), 10), v.Sign("m", old, body))
	if !errors.Is(err, ErrTimestampTooOld) {
		t.Fatalf("want ErrTimestampTooOld, got %v", err)
	}

	future := time.Now().Add(SignatureTolerance + time.Minute)
	err = v.Verify(body, "m", strconv.FormatInt(future.Unix(), 10), v.Sign("m", future, body))
	if !errors.Is(err, ErrTimestampTooNew) {
		t.Fatalf("want ErrTimestampTooNew, got %v", err)
	}

	if err := v.Verify(body, "m", "not-a-number", "v1,xxx"); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("want ErrInvalidTimestamp, got %v", err)
	}
}

func TestVerify_MissingParts(t *testing.T) {
	v := testVerifier(t)
	if err := v.Verify([]byte(`{}`), "", "123", "v1,x"); !errors.Is(err, ErrMissingHeaders) {
		t.Fatalf("want ErrMissingHeaders, got %v", err)
	}
	if err := v.Verify([]byte(`{}`), "m", "", "v1,x"); !errors.Is(err, ErrMissingHeaders) {
		t.Fatalf("want ErrMissingHeaders, got %v", err)
	}
	if err := v.Verify([]byte(`{}`), "m", "123", ""); !errors.Is(err, ErrMissingHeaders) {
		t.Fatalf("want ErrMissingHeaders, got %v", err)
	}
}

func TestVerify_SignatureList(t *testing.T) {
	v := testVerifier(t)
	body := []byte(`{"x":true}`)
	now := time.Now()
	good := v.Sign("m", now, body)
	ts := strconv.FormatInt(now.Unix(), 10)

	// unknown versions and bad entries are skipped, one good v1 wins
	list := "v2,AAAA v1,garbage " + good
	if err := v.Verify(body, "m", ts, list); err != nil {
		t.Fatalf("verify list: %v", err)
	}
}

func TestNewWebhookVerifier_BadSecret(t *testing.T) {
	if _, err := NewWebhookVerifier("whsec_%%%not-base64%%%"); !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("want ErrInvalidSecret, got %v", err)
	}
	if _, err := NewWebhookVerifier(""); !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("want ErrInvalidSecret for empty, got %v", err)
	}
}

func TestVerify_PrefixOptional(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte("another-signing-key"))
	a, err := NewWebhookVerifier("whsec_" + raw)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewWebhookVerifier(raw)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	body := []byte(`{}`)
	if a.Sign("m", now, body) != b.Sign("m", now, body) {
		t.Fatal("prefix changed the key")
	}
}
