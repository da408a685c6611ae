package trace

import (
	"bufio"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// VerifyResult is the outcome of verifying a trace file.
type VerifyResult struct {
	EventCount     int
	Valid          bool
	BrokenAt       int // -1 if no break
	Signed         bool
	SignatureOK    bool
	SignatureNoKey bool // signature present but no key to verify
	SigningKeyID   string
	ChainHash      string
	Error          string

	// Events counts events per type. Status and Diagnostics come from the
	// closing pass_complete event, if any.
	Events      map[EventType]int
	Status      string
	Diagnostics int
}

// VerifyFile verifies the hash chain and optional signature of a trace file.
func VerifyFile(path string) (*VerifyResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()
	return Verify(f)
}

// Verify checks hash chain integrity and optional HMAC signature.
func Verify(r io.Reader) (*VerifyResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max line

	expectedPrevHash := genesisHash
	count := 0
	events := map[EventType]int{}
	var lastEvent Event

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		count++

		var evt Event
		if err := json.Unmarshal(line, &evt); err != nil {
			return broken(count, fmt.Sprintf("event %d: invalid JSON: %v", count, err)), nil
		}
		if evt.PrevHash != expectedPrevHash {
			return broken(count, fmt.Sprintf("event %d: prev_hash mismatch (expected %s…, got %s…)",
				count, short(expectedPrevHash), short(evt.PrevHash))), nil
		}
		expectedPrevHash = hashLine(line)
		events[evt.Type]++
		lastEvent = evt
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	result := &VerifyResult{
		EventCount: count,
		Valid:      true,
		BrokenAt:   -1,
		Events:     events,
	}

	if lastEvent.Type != EventPassComplete || lastEvent.Data == nil {
		return result, nil
	}
	result.Status, _ = lastEvent.Data["status"].(string)
	if n, ok := lastEvent.Data["diagnostics"].(float64); ok {
		result.Diagnostics = int(n)
	}
	result.ChainHash, _ = lastEvent.Data["chain_hash"].(string)
	sig, ok := lastEvent.Data["signature"].(string)
	if !ok {
		return result, nil
	}
	result.Signed = true
	result.SigningKeyID, _ = lastEvent.Data["signing_key_id"].(string)
	key := os.Getenv(SigningKeyEnv)
	if key == "" {
		result.SignatureNoKey = true
	} else if result.ChainHash != "" {
		result.SignatureOK = hmac.Equal([]byte(sig), []byte(sign(key, result.ChainHash)))
	}
	return result, nil
}

func broken(at int, msg string) *VerifyResult {
	return &VerifyResult{EventCount: at, Valid: false, BrokenAt: at, Error: msg}
}

func short(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}
