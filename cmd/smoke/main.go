// Manual smoke harness: drives a running server through a
// search -> expand -> explain round trip and prints the graph shape.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const baseURL = "http://localhost:8080"

type snapshot struct {
	Nodes []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"nodes"`
	Edges []struct {
		SourceID string `json:"source_id"`
		TargetID string `json:"target_id"`
		Relation string `json:"relation"`
	} `json:"edges"`
}

func main() {
	term := "Octopus"
	if len(os.Args) > 1 {
		term = os.Args[1]
	}

	fmt.Printf("Searching %q...\n", term)
	var snap snapshot
	if !sendRequest("POST", "/search", map[string]string{"term": term}, &snap) {
		os.Exit(1)
	}
	printGraph(snap)

	if len(snap.Nodes) < 2 {
		fmt.Println("Nothing to expand, stopping.")
		return
	}

	child := snap.Nodes[1]
	fmt.Printf("Expanding %q...\n", child.Label)
	if !sendRequest("POST", "/nodes/"+child.ID+"/expand", nil, &snap) {
		os.Exit(1)
	}
	printGraph(snap)

	fmt.Printf("Explaining %q...\n", child.Label)
	var expl struct {
		Explanation string `json:"explanation"`
	}
	if !sendRequest("GET", "/nodes/"+child.ID+"/explanation", nil, &expl) {
		os.Exit(1)
	}
	fmt.Println(expl.Explanation)
}

func printGraph(snap snapshot) {
	fmt.Printf("  %d nodes, %d edges\n", len(snap.Nodes), len(snap.Edges))
	for _, e := range snap.Edges {
		fmt.Printf("  %s -[%s]-> %s\n", e.SourceID, e.Relation, e.TargetID)
	}
}

func sendRequest(method, endpoint string, payload interface{}, out interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			fmt.Printf("Error decoding response: %v\n", err)
			return false
		}
	}
	return true
}
