package snowflake

import (
	"strings"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	if err := Init(1, 1); err != nil {
		t.Fatalf("Init: %v", err)
	}

	seen := make(map[int64]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id, err := NextID()
		if err != nil {
			t.Fatalf("NextID: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}

	msgID, err := NextMessageID()
	if err != nil || !strings.HasPrefix(msgID, "msg_") {
		t.Fatalf("NextMessageID = %q, %v", msgID, err)
	}
}
