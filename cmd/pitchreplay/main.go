// Command pitchreplay imports match telemetry into SQLite and replays it
// headlessly through the resampling and playback engine.
//
// Usage:
//
//	pitchreplay migrate --db replay.db
//	pitchreplay import --db replay.db tracking.csv
//	pitchreplay matches --db replay.db
//	pitchreplay plot --db replay.db --match m1 --from 0 --to 250 --out plots
//	pitchreplay play --db replay.db --match m1 --for 30s --pause-at 5s --resume-at 8s
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
