package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Params is the flat key/value view of one request: query string
// merged with whatever could be recovered from the body.
type Params map[string]string

const maxBodyBytes = 1 << 20

// ExtractParams merges query and body parameters into one mapping.
// Body values win on key collision. Parse failures are swallowed: the
// caller proceeds with whatever was recovered and downstream
// validation reports the missing fields instead.
func ExtractParams(r *http.Request, log *zap.Logger) Params {
	params := Params{}
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			params[key] = vals[len(vals)-1]
		}
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return params
	}

	body, err := parseBody(r)
	if err != nil {
		log.Warn("body parse failed", zap.Error(err))
		return params
	}
	for k, v := range body {
		params[k] = v
	}
	return params
}

func parseBody(r *http.Request) (map[string]string, error) {
	ct := strings.ToLower(r.Header.Get("Content-Type"))

	switch {
	case strings.Contains(ct, "application/json"):
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		return decodeJSONBody(raw)

	case strings.Contains(ct, "application/x-www-form-urlencoded"),
		strings.Contains(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && err != http.ErrNotMultipart {
			return nil, err
		}
		fields := map[string]string{}
		for key, vals := range r.PostForm {
			if len(vals) > 0 {
				fields[key] = vals[len(vals)-1]
			}
		}
		return fields, nil

	default:
		// Unknown content type: try JSON, fall back to raw text as
		// the message content.
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, nil
		}
		if fields, err := decodeJSONBody(raw); err == nil && fields != nil {
			return fields, nil
		}
		return map[string]string{"content": string(raw)}, nil
	}
}

// decodeJSONBody applies the body-shape rules: a bare string becomes
// the content field, objects unwrap a nested "params" or "data"
// container when present.
func decodeJSONBody(raw []byte) (map[string]string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch body := v.(type) {
	case string:
		return map[string]string{"content": body}, nil
	case map[string]any:
		if nested, ok := body["params"].(map[string]any); ok {
			return flatten(nested), nil
		}
		if nested, ok := body["data"].(map[string]any); ok {
			return flatten(nested), nil
		}
		return flatten(body), nil
	default:
		// numbers, bools, arrays: nothing usable
		return nil, nil
	}
}

func flatten(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
