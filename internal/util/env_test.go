package util

import "testing"

func TestGetEnvString(t *testing.T) {
	t.Setenv("AFFINITY_TEST_STRING", "value")
	if got := GetEnvString("AFFINITY_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("unexpected value: got %q, want %q", got, "value")
	}
	if got := GetEnvString("AFFINITY_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("unexpected default: got %q, want %q", got, "fallback")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("AFFINITY_TEST_INT", "8")
	if got := GetEnvInt("AFFINITY_TEST_INT", 1); got != 8 {
		t.Fatalf("unexpected value: got %d, want 8", got)
	}

	t.Setenv("AFFINITY_TEST_INT", "not-a-number")
	if got := GetEnvInt("AFFINITY_TEST_INT", 1); got != 1 {
		t.Fatalf("unexpected default for invalid value: got %d, want 1", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("AFFINITY_TEST_BOOL", "true")
	if !GetEnvBool("AFFINITY_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}

	t.Setenv("AFFINITY_TEST_BOOL", "yes")
	if GetEnvBool("AFFINITY_TEST_BOOL", false) {
		t.Fatalf("expected default for invalid value")
	}
}
