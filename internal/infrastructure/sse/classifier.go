package sse

import (
	"bytes"
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/pauseshop/backend/internal/domain"
)

// ErrMalformedFrame is returned for a data line that is not valid JSON or
// whose fields have the wrong types for the shape it matched
var ErrMalformedFrame = errors.New("malformed frame")

// Classify parses a frame payload and assigns its event kind. Shapes are
// tested in priority order: product, completion, error, ranking, ranking
// completion. Anything else is an UnrecognizedEvent.
func Classify(payload []byte) (domain.StreamEvent, error) {
	if !json.Valid(payload) {
		return nil, errors.Wrap(ErrMalformedFrame, "invalid json")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		// Valid JSON that is not an object
		return domain.UnrecognizedEvent{Raw: json.RawMessage(payload)}, nil
	}

	switch {
	case truthy(fields["name"]) && truthy(fields["iconCategory"]) && truthy(fields["category"]):
		var product domain.Product
		if err := json.Unmarshal(payload, &product); err != nil {
			return nil, errors.Wrapf(ErrMalformedFrame, "product: %v", err)
		}
		return domain.ProductEvent{Product: product}, nil

	case present(fields, "totalProducts") || present(fields, "processingTime"):
		return completion(payload, fields)

	case truthy(fields["message"]) && truthy(fields["code"]):
		code := scalarString(fields["code"])
		return domain.ErrorEvent{
			Kind:    domain.ErrorKindForCode(code),
			Code:    code,
			Message: scalarString(fields["message"]),
		}, nil

	case present(fields, "rank"):
		var ranking domain.RankingResult
		if err := json.Unmarshal(payload, &ranking); err != nil {
			return nil, errors.Wrapf(ErrMalformedFrame, "ranking: %v", err)
		}
		return domain.RankingEvent{Ranking: ranking}, nil

	case present(fields, "totalRankings"):
		return completion(payload, fields)

	default:
		return domain.UnrecognizedEvent{Raw: json.RawMessage(payload)}, nil
	}
}

func completion(payload []byte, fields map[string]json.RawMessage) (domain.StreamEvent, error) {
	var body struct {
		TotalProducts  *int     `json:"totalProducts"`
		TotalRankings  *int     `json:"totalRankings"`
		ProcessingTime *float64 `json:"processingTime"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, errors.Wrapf(ErrMalformedFrame, "completion: %v", err)
	}
	kind := domain.CompletionAnalysis
	if present(fields, "totalRankings") {
		kind = domain.CompletionRanking
	}
	return domain.CompletionEvent{
		Kind:           kind,
		TotalProducts:  body.TotalProducts,
		TotalRankings:  body.TotalRankings,
		ProcessingTime: body.ProcessingTime,
	}, nil
}

// present reports whether key exists in the object, including explicit nulls
func present(fields map[string]json.RawMessage, key string) bool {
	_, ok := fields[key]
	return ok
}

// truthy reports whether raw is set to something other than null, false, 0 or ""
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", `""`:
		return false
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n != 0
	}
	return true
}

// scalarString renders a JSON scalar as text; strings lose their quotes
func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
