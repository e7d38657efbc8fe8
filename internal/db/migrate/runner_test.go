package migrate

import (
	"strings"
	"testing"
)

func TestRunRequiresDSN(t *testing.T) {
	err := Run("", "up")
	if err == nil {
		t.Fatal("Run with empty DSN should fail")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should name DATABASE_URL, got %q", err)
	}
}

func TestRunRejectsUnknownDirection(t *testing.T) {
	for _, dir := range []string{"", "sideways", "UP", "Down"} {
		err := Run("postgres://localhost/marketplace", dir)
		if err == nil {
			t.Errorf("Run direction %q should fail", dir)
			continue
		}
		if !strings.Contains(err.Error(), "direction") {
			t.Errorf("direction %q: error should mention direction, got %q", dir, err)
		}
	}
}
