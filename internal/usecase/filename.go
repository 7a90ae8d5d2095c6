package usecase

import "time"

const (
	filenameLayout = "2006-01-02.15:04:05"
	dumpExtension  = ".dump"
)

// GenerateFilename names a dump after the UTC time it was taken.
func GenerateFilename(t time.Time) string {
	return t.UTC().Format(filenameLayout) + dumpExtension
}
