package rpc

import (
	"chat-relay/errors"
	"encoding/json"
	"fmt"
)

// PageMessages cuts the page of messages following the one with id after.
// The page stops at limit messages, or before the encoded page would pass
// budget bytes. A non-positive limit or budget disables that bound. A page is
// never empty while messages remain, so a single message larger than budget
// still goes out alone.
func PageMessages(messages []Message, after string, limit, budget int) ([]Message, string, error) {
	start := 0
	if after != "" {
		index := -1
		for i, m := range messages {
			if m.ID == after {
				index = i
				break
			}
		}
		if index < 0 {
			return nil, "", fmt.Errorf("%w: unknown cursor %q", errors.ErrInvalidPayload, after)
		}
		start = index + 1
	}

	end, size := start, 0
	for end < len(messages) {
		if limit > 0 && end-start == limit {
			break
		}
		if budget > 0 {
			encoded, err := json.Marshal(messages[end])
			if err != nil {
				return nil, "", err
			}
			// one separator per element
			size += len(encoded) + 1
			if size > budget && end > start {
				break
			}
		}
		end++
	}

	page := messages[start:end]
	if end == len(messages) || end == start {
		return page, "", nil
	}
	return page, page[len(page)-1].ID, nil
}
