package page

import "testing"

func TestFingerprint_Stable(t *testing.T) {
	body := []byte("<html><title>Taj Mahal Tea ₹499</title></html>")

	first, err := Fingerprint(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Fingerprint(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected stable fingerprint")
	}
}

func TestFingerprint_DifferentInputs(t *testing.T) {
	first, err := Fingerprint([]byte("<p>Add to cart</p>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Fingerprint([]byte("<p>Sold out</p>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Fatalf("expected different fingerprints")
	}
}

func TestFingerprint_RejectsEmpty(t *testing.T) {
	if _, err := Fingerprint(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
}
