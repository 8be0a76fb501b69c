package dextools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// URL builds the request URL for id on the given endpoint.
func (c *Client) URL(id string, ep Endpoint) string {
	return fmt.Sprintf("%s/%s/%s/%s%s", c.baseURL, ep.Scope, c.chain, url.PathEscape(id), ep.Path)
}

// Fetch performs exactly one GET for id on ep and returns the "data" object
// of the response. Errors are *NetworkError, *HTTPError or *SchemaError.
func (c *Client) Fetch(ctx context.Context, id string, ep Endpoint) (Fragment, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(id, ep), nil)
	if err != nil {
		return Fragment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Fragment{}, &NetworkError{Endpoint: ep, ID: id, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fragment{}, &NetworkError{Endpoint: ep, ID: id, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return Fragment{}, &HTTPError{Endpoint: ep, ID: id, StatusCode: resp.StatusCode, Body: body}
	}

	data, envErr := decodeEnvelope(body)
	if envErr != nil {
		return Fragment{}, &SchemaError{Endpoint: ep, ID: id, Reason: envErr.reason, Err: envErr.cause}
	}

	c.logger.Debug().
		Str("endpoint", ep.String()).
		Str("id", id).
		Int("bytes", len(body)).
		Int("fields", len(data)).
		Msg("fragment received")

	return Fragment{Endpoint: ep, ID: id, Data: data}, nil
}

type envelopeError struct {
	reason string
	cause  error
}

// decodeEnvelope extracts the object under "data", keeping numbers exact.
func decodeEnvelope(body []byte) (map[string]any, *envelopeError) {
	var envelope map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&envelope); err != nil {
		return nil, &envelopeError{reason: "decode body", cause: err}
	}

	raw, ok := envelope["data"]
	if !ok {
		return nil, &envelopeError{reason: `missing "data" key`}
	}

	var data map[string]any
	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, &envelopeError{reason: `"data" is not an object`, cause: err}
	}
	if data == nil {
		return nil, &envelopeError{reason: `"data" is null`}
	}

	return data, nil
}
