/*
Copyright 2026 The streamhist Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/streamhist/streamhist/internal/history"
	"github.com/streamhist/streamhist/internal/index"
	"github.com/streamhist/streamhist/internal/ingest"
)

// Library pairs a frozen event store with the index built over it.
// Most commands load one from the export directory and query it.
type Library struct {
	Store *history.EventStore
	Index *index.Index
}

func openLibrary() (*Library, error) {
	dir := viper.GetString("data")
	if dir == "" {
		return nil, fmt.Errorf("no data directory set - pass --data or set it in the config file")
	}
	return loadLibrary(dir)
}

func loadLibrary(dir string) (*Library, error) {
	store, err := ingest.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading library: %w", err)
	}
	return &Library{Store: store, Index: index.Build(store)}, nil
}

// window narrows the library to [start, end) and reindexes. Zero
// start and end mean the whole history.
func (l *Library) window(start, end time.Time) *Library {
	if start.IsZero() && end.IsZero() {
		return l
	}
	store := l.Store.Window(start, end)
	return &Library{Store: store, Index: index.Build(store)}
}

// windowOpenEnded is window with either bound optional. A zero start
// extends to the first event, a zero end past the last one.
func (l *Library) windowOpenEnded(start, end time.Time) *Library {
	if start.IsZero() && end.IsZero() {
		return l
	}
	if start.IsZero() {
		if t, ok := l.Store.First(); ok {
			start = t
		}
	}
	if end.IsZero() {
		if t, ok := l.Store.Last(); ok {
			end = t.Add(time.Second)
		}
	}
	return l.window(start, end)
}

func newLibrary(store *history.EventStore) *Library {
	return &Library{Store: store, Index: index.Build(store)}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
