package watch

import (
	"context"

	"jasmined/internal/log"
)

// FileStager copies one changed file into the staging directory.
// *stage.Stager implements it.
type FileStager interface {
	StageFile(path string) (bool, error)
}

// Restage feeds events from w to stager until ctx is done or the watcher
// stops. Failures to stage a single file are logged and do not end the
// loop. It returns the number of files restaged.
func Restage(ctx context.Context, w *Watcher, stager FileStager) int {
	restaged := 0
	events := w.FileChannel()
	for {
		select {
		case <-ctx.Done():
			return restaged
		case mod, ok := <-events:
			if !ok {
				return restaged
			}
			staged, err := stager.StageFile(mod.Path)
			if err != nil {
				log.LogWithError(err).Error("Failed to restage file")
				continue
			}
			if staged {
				restaged++
			}
		}
	}
}
