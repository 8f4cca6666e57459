package internal

import (
	"chat-relay/infrastructure/storage"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const defaultInspectLimit = 200

// InspectRow is one badger entry rendered for humans.
type InspectRow struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	EntityID  string `json:"entity_id"`
	Detail    string `json:"detail"`
}

type RowMapper func(key string, val []byte) InspectRow

// DefaultMapper only knows the key layout, values are shown by size.
func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	parts := strings.Split(key, ":")
	switch parts[0] {
	case "conv":
		// conv:{low}:{high}:{created_ns}:{id}
		row.Type = "CONVERSATION"
		if len(parts) == 5 {
			if ns, err := strconv.ParseInt(parts[3], 10, 64); err == nil {
				row.Timestamp = time.Unix(0, ns).UTC().Format(time.TimeOnly)
			}
			row.EntityID = short(parts[4])
			row.Detail = parts[1] + " <-> " + parts[2]
		}
	case "unseen":
		// unseen:{recipient}:{sender}:{id}
		row.Type = "UNSEEN"
		if len(parts) == 4 {
			row.EntityID = short(parts[3])
			row.Detail = parts[2] + " -> " + parts[1]
		}
	case "email":
		row.Type = "EMAIL"
		row.EntityID = short(string(val))
		row.Detail = strings.TrimPrefix(key, "email:")
	}
	return row
}

// RelayMapper decodes message records on top of DefaultMapper.
func RelayMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)
	if !strings.HasPrefix(key, "msg:") {
		return row
	}
	message, err := storage.DecodeMessage(val)
	if err != nil {
		row.Detail = "Error: decode failed"
		return row
	}
	row.Type = "MESSAGE"
	row.Timestamp = message.CreatedAt.UTC().Format(time.TimeOnly)
	row.EntityID = short(message.ID.String())
	row.Detail = message.SenderID + " -> " + message.RecipientID + ": " + message.Text
	if message.Image != "" {
		row.Detail += " [image]"
	}
	if message.Seen {
		row.Detail += " (seen)"
	}
	return row
}

// Rows walks the keys under prefix in key order, at most limit of them.
func Rows(db *badger.DB, prefix string, limit int, mapper RowMapper) ([]InspectRow, error) {
	if mapper == nil {
		mapper = DefaultMapper
	}
	var rows []InspectRow
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid() && (limit <= 0 || len(rows) < limit); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				rows = append(rows, mapper(key, val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return rows, err
}

// InspectHandler serves the rows under ?prefix= as JSON.
func InspectHandler(db *badger.DB, mapper RowMapper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}
		limit := defaultInspectLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		rows, err := Rows(db, prefix, limit, mapper)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Prefix string       `json:"prefix"`
			Items  []InspectRow `json:"items"`
		}{Prefix: prefix, Items: rows})
	}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
