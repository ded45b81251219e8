// smoke-users exercises a running usergate-api end to end: create, read,
// update, list and delete one user through the HTTP surface.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

func main() {
	base := os.Getenv("USERGATE_SMOKE_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	token := os.Getenv("USERGATE_SMOKE_ADMIN_TOKEN")
	if token == "" {
		log.Fatal("USERGATE_SMOKE_ADMIN_TOKEN is required (admin bearer token)")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	email := fmt.Sprintf("smoke-%s@example.com", uuid.NewString())

	created := map[string]any{}
	status := call(client, token, http.MethodPost, base+"/v1/users", map[string]any{
		"name":      "Smoke",
		"last_name": "Test",
		"email":     email,
	}, &created)
	if status != http.StatusCreated {
		log.Fatalf("create user: status %d", status)
	}
	externalID, _ := created["external_id"].(string)
	if externalID == "" {
		log.Fatalf("create user: missing external_id in %v", created)
	}

	got := map[string]any{}
	if status := call(client, token, http.MethodGet, base+"/v1/users/"+externalID, nil, &got); status != http.StatusOK {
		log.Fatalf("get user: status %d", status)
	}
	if got["email"] != email {
		log.Fatalf("get user: email mismatch %v", got["email"])
	}

	updated := map[string]any{}
	status = call(client, token, http.MethodPut, base+"/v1/users/"+externalID, map[string]any{
		"name":      "Smoke",
		"last_name": "Updated",
		"email":     email,
	}, &updated)
	if status != http.StatusOK {
		log.Fatalf("update user: status %d", status)
	}
	if updated["last_name"] != "Updated" {
		log.Fatalf("update user: change not applied: %v", updated)
	}

	page := map[string]any{}
	if status := call(client, token, http.MethodGet, base+"/v1/users?page=0&size=50", nil, &page); status != http.StatusOK {
		log.Fatalf("list users: status %d", status)
	}
	if total, ok := page["total_elements"].(float64); !ok || total < 1 {
		log.Fatalf("list users: unexpected envelope %v", page)
	}

	if status := call(client, token, http.MethodDelete, base+"/v1/users/"+externalID, nil, nil); status != http.StatusNoContent {
		log.Fatalf("delete user: status %d", status)
	}
	if status := call(client, token, http.MethodGet, base+"/v1/users/"+externalID, nil, nil); status != http.StatusNotFound {
		log.Fatalf("get after delete: status %d", status)
	}

	fmt.Printf("✅ usergate smoke test passed: external_id=%s\n", externalID)
}

func call(client *http.Client, token, method, url string, body any, out any) int {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal %s %s: %v", method, url, err)
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		log.Fatalf("new request %s %s: %v", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			log.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}
