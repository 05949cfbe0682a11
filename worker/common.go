package worker

import (
	"fmt"
	"path"
	"time"
)

func getResultsFileKey(task *Task) string {
	return path.Join(
		"tagged",
		task.redisKey,
		fmt.Sprintf("%s.tagged.txt", task.redisKey),
	)
}

func formatFingerprint(fingerprint uint64) string {
	return fmt.Sprintf("%016x", fingerprint)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
