package main

import (
	"flag"
	"fmt"
	"os"

	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/store"
)

func main() {
	var p string
	var asJSON bool
	flag.StringVar(&p, "file", "", "message file path to inspect")
	flag.BoolVar(&asJSON, "json", false, "dump the parsed store as JSON")
	flag.Parse()
	if p == "" {
		fmt.Fprintln(os.Stderr, "--file required")
		os.Exit(2)
	}
	logger.Init()

	st := store.New(p)
	if err := st.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", p, err)
		os.Exit(1)
	}

	if asJSON {
		b, err := st.SnapshotJSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to serialize store: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, string(b))
		return
	}

	threads, messages := st.Counts()
	fmt.Fprintf(os.Stdout, "file: %s\nthreads: %d\nmessages: %d\n", p, threads, messages)
	for _, id := range st.UserIDs() {
		var uid int
		if _, err := fmt.Sscanf(id, "%d", &uid); err != nil {
			continue
		}
		msgs := st.Messages(uid)
		first, last := int64(0), int64(0)
		if len(msgs) > 0 {
			first, last = msgs[0].SentTime, msgs[len(msgs)-1].SentTime
		}
		fmt.Fprintf(os.Stdout, "  user %s: %d messages (first=%d last=%d)\n", id, len(msgs), first, last)
	}
}
