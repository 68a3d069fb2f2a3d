package utils

import (
	"math"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("BOSSRAID_TEST_INT", "42")
	t.Setenv("BOSSRAID_TEST_BAD_INT", "forty")
	t.Setenv("BOSSRAID_TEST_DURATION", "1500ms")
	t.Setenv("BOSSRAID_TEST_BOOL", "false")

	if got := GetEnvDefault("BOSSRAID_TEST_MISSING", "x"); got != "x" {
		t.Errorf("GetEnvDefault = %q, want x", got)
	}
	if got := GetEnvInt("BOSSRAID_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	if got := GetEnvInt("BOSSRAID_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt(bad) = %d, want default 7", got)
	}
	if got := GetEnvDuration("BOSSRAID_TEST_DURATION", time.Second); got != 1500*time.Millisecond {
		t.Errorf("GetEnvDuration = %v, want 1.5s", got)
	}
	if got := GetEnvBool("BOSSRAID_TEST_BOOL", true); got {
		t.Error("GetEnvBool = true, want false")
	}
}

func TestFinite(t *testing.T) {
	if !Finite(0, 1.5, -3) {
		t.Error("finite values reported as non-finite")
	}
	if Finite(1, math.NaN()) || Finite(math.Inf(-1)) {
		t.Error("NaN or Inf should be rejected")
	}
	if !Finite() {
		t.Error("no values is trivially finite")
	}
}
