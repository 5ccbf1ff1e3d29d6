package monitoring

import (
	"time"

	"github.com/goccy/go-json"
)

// callbackPayload is the JSON body POSTed to a subscription's callback_url,
// per §4.7: reference id, current hits, change flag, and timestamps.
type callbackPayload struct {
	ReferenceID string          `json:"reference_id"`
	HasChanges  bool            `json:"has_changes"`
	ScreenedAt  time.Time       `json:"screened_at"`
	Hits        json.RawMessage `json:"hits"`
}

func (p callbackPayload) marshal() ([]byte, error) {
	return json.Marshal(p)
}
