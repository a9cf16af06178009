package main

import (
	"encoding/json"
	"testing"
)

func TestGenerateJSONSize(t *testing.T) {
	for _, size := range []int{0, 100, 1024, 4096} {
		key, value, err := generateJSON(size)
		if err != nil {
			t.Fatalf("size %d: generateJSON failed: %v", size, err)
		}
		if len(value) < size {
			t.Errorf("size %d: document is only %d bytes", size, len(value))
		}
		var user UserProfile
		if err := json.Unmarshal(value, &user); err != nil {
			t.Fatalf("size %d: invalid JSON: %v", size, err)
		}
		if user.ID != key {
			t.Errorf("size %d: expected id %q, got %q", size, key, user.ID)
		}
	}
}

func TestGenerateCommand(t *testing.T) {
	tests := []struct {
		mode    string
		name    string
		numArgs int
	}{
		{"random", "SET", 3},
		{"json", "SET", 3},
		{"hash", "HSET", 4},
	}
	for _, test := range tests {
		args, err := generateCommand(test.mode, 64)
		if err != nil {
			t.Fatalf("%s: generateCommand failed: %v", test.mode, err)
		}
		if len(args) != test.numArgs || args[0] != test.name {
			t.Errorf("%s: unexpected command %q", test.mode, args)
		}
	}

	args, err := generateCommand("hash", 64)
	if err != nil {
		t.Fatalf("hash: generateCommand failed: %v", err)
	}
	if len(args[1]) != len("user:")+4 || len(args[3]) != 64 {
		t.Errorf("hash: expected a user:xxxx key and a 64 byte value, got %q", args)
	}
}
