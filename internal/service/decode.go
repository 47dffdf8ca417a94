package service

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/beevik/etree"
)

// decode turns a body into a value according to strategy. An empty body
// decodes to nil for the structured strategies.
func decode(body []byte, strategy DecodeStrategy) (any, error) {
	switch strategy {
	case DecodeRaw, DecodeHTML:
		return string(body), nil
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	switch strategy {
	case DecodeJSONMap:
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, &DecodeError{Strategy: strategy, Cause: err}
		}
		return m, nil

	case DecodeJSONObject:
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, &DecodeError{Strategy: strategy, Cause: err}
		}
		return v, nil

	case DecodeXML:
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(body); err != nil {
			return nil, &DecodeError{Strategy: strategy, Cause: err}
		}
		if doc.Root() == nil {
			return nil, &DecodeError{Strategy: strategy, Cause: errors.New("no root element")}
		}
		return doc, nil
	}

	return nil, &DecodeError{Strategy: strategy, Cause: errors.New("unknown decode strategy")}
}
