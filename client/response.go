package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ReadJSON decodes the body of resp as JSON into a T and closes it. It
// takes the result of a Transport call directly; a non-nil err is returned
// unchanged. The response status is not inspected.
func ReadJSON[T any](resp *http.Response, err error) (T, error) {
	var v T
	if err != nil {
		return v, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("decode %s response: %w", resp.Status, err)
	}
	return v, nil
}

// Discard drains and closes the body of resp. Like ReadJSON it takes the
// result of a Transport call directly and returns err unchanged.
func Discard(resp *http.Response, err error) error {
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("read %s response: %w", resp.Status, err)
	}
	return nil
}
