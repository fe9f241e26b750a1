package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/crucial707/asset-lifecycle/cmd/cli/config"
)

// Get performs an authorized GET against the API and decodes the JSON body into out.
func Get(path string, out interface{}) error {
	return do(http.MethodGet, path, nil, out)
}

// Post performs an authorized POST with a JSON payload and decodes the response into out.
// payload and out may both be nil.
func Post(path string, payload, out interface{}) error {
	return do(http.MethodPost, path, payload, out)
}

func do(method, path string, payload, out interface{}) error {
	token, err := config.ReadToken()
	if err != nil {
		return fmt.Errorf("not logged in (run: assetctl users login)")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// PrintJSON pretty-prints v to stdout.
func PrintJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
