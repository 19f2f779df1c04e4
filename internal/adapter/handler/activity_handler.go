package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/rl1809/bookstore/internal/core/domain"
	"github.com/rl1809/bookstore/internal/core/service"
)

const schemaActivity = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["book_id", "action"],
  "properties": {
    "book_id": { "type": "integer", "minimum": 1 },
    "action": { "type": "string", "enum": ["view", "cart", "purchase"] },
    "activity_time": { "type": "string", "format": "date-time" }
  },
  "additionalProperties": false
}`

const schemaActivityBulk = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["events"],
  "properties": {
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["book_id", "action"],
        "properties": {
          "book_id": { "type": "integer", "minimum": 1 },
          "action": { "type": "string", "enum": ["view", "cart", "purchase"] },
          "activity_time": { "type": "string", "format": "date-time" }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

var (
	activityLoader     = gojsonschema.NewStringLoader(schemaActivity)
	activityBulkLoader = gojsonschema.NewStringLoader(schemaActivityBulk)
)

type ActivityRequest struct {
	BookID       int64      `json:"book_id"`
	Action       string     `json:"action"`
	ActivityTime *time.Time `json:"activity_time"`
}

func (a ActivityRequest) input() service.ActivityInput {
	in := service.ActivityInput{BookID: a.BookID, Action: domain.ActivityAction(a.Action)}
	if a.ActivityTime != nil {
		in.ActivityTime = *a.ActivityTime
	}
	return in
}

type ActivityBulkRequest struct {
	Events []ActivityRequest `json:"events"`
}

func (h *HTTPHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decodeValidated(r, activityLoader, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.svc.Activities.Log(r.Context(), principalFrom(r.Context()), sessionFrom(r.Context()).id, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *HTTPHandler) LogActivityBulk(w http.ResponseWriter, r *http.Request) {
	var req ActivityBulkRequest
	if err := decodeValidated(r, activityBulkLoader, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	events := make([]service.ActivityInput, len(req.Events))
	for i, e := range req.Events {
		events[i] = e.input()
	}

	created, err := h.svc.Activities.LogBulk(r.Context(), principalFrom(r.Context()), sessionFrom(r.Context()).id, events)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"created": created})
}

// decodeValidated checks the raw body against a JSON schema before decoding it.
func decodeValidated(r *http.Request, schema gojsonschema.JSONLoader, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return domain.Validation("Invalid request body")
	}
	if err := validateJSONSchema(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.Validation("Invalid request body")
	}
	return nil
}

func validateJSONSchema(schema gojsonschema.JSONLoader, body []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return domain.Validation("Invalid request body")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Validation("Invalid activity payload: %s", strings.Join(msgs, "; "))
	}
	return nil
}
