// event-sender posts lifecycle events to a running tracker, either one-off
// or as a scripted provisioning sequence. Useful for manual testing:
//
//	event-sender -key proj-1 -status building
//	event-sender -key proj-1 -sequence -interval 500ms
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

var provisionSequence = []string{
	"queued", "provisioning", "validating_package", "creating_project",
	"forking", "creating_repo", "cloning", "setting_up",
	"installing_composer", "installing_npm", "building", "finalizing",
	"ready",
}

type event struct {
	Key       string `json:"key"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	AuxID     *int64 `json:"auxId,omitempty"`
	Timestamp string `json:"timestamp"`
}

func main() {
	target := flag.String("target", "http://localhost:8080/events", "tracker ingest URL")
	key := flag.String("key", "", "entity key (required)")
	status := flag.String("status", "", "status to send (one-off mode)")
	errText := flag.String("error", "", "error text to attach")
	auxID := flag.Int64("aux", 0, "auxiliary id to attach (0 = none)")
	sequence := flag.Bool("sequence", false, "send the full provisioning sequence")
	interval := flag.Duration("interval", time.Second, "delay between sequence events")
	flag.Parse()

	if *key == "" {
		fmt.Fprintln(os.Stderr, "event-sender: -key is required")
		flag.Usage()
		os.Exit(2)
	}

	switch {
	case *sequence:
		for i, s := range provisionSequence {
			if i > 0 {
				time.Sleep(*interval)
			}
			send(*target, event{Key: *key, Status: s})
		}
	case *status != "":
		ev := event{Key: *key, Status: *status, Error: *errText}
		if *auxID != 0 {
			ev.AuxID = auxID
		}
		send(*target, ev)
	default:
		fmt.Fprintln(os.Stderr, "event-sender: provide -status or -sequence")
		flag.Usage()
		os.Exit(2)
	}
}

func send(target string, ev event) {
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(ev)
	if err != nil {
		log.Fatalf("event-sender: marshal: %v", err)
	}

	resp, err := http.Post(target, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("event-sender: post: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("event-sender: %s -> %d %s", ev.Status, resp.StatusCode, bytes.TrimSpace(respBody))
}
