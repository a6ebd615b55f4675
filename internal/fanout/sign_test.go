package fanout

import "testing"

func TestSignKnownVector(t *testing.T) {
	// echo -n '{"event":"call.ended"}' | openssl dgst -sha256 -hmac secret
	got := Sign([]byte(`{"event":"call.ended"}`), "secret")
	want := "b0c5245e2b139684a927fb714ae8faaa50d1e8766c82aa240a49a5de2ad14112"
	if got != want {
		t.Fatalf("Sign = %q, want %q", got, want)
	}
}

func TestSignDependsOnSecret(t *testing.T) {
	body := []byte(`{"event":"call.started"}`)
	if Sign(body, "a") == Sign(body, "b") {
		t.Fatalf("different secrets must produce different signatures")
	}
}
