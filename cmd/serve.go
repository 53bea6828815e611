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
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/streamhist/streamhist/internal/analysis"
	"github.com/streamhist/streamhist/internal/index"
)

var serveAddr string
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the listening history over HTTP",
	Long: `Loads the endsong files and answers JSON queries about them. POST
/api/reload re-reads the export directory without downtime.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := runServe(serveAddr, viper.GetString("data"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8329", "address to listen on")
}

type server struct {
	lib     atomic.Pointer[Library]
	dataDir string
	log     zerolog.Logger
}

func runServe(addr, dataDir string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	srv := &server{
		dataDir: dataDir,
		log:     zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
	srv.lib.Store(lib)

	srv.log.Info().
		Str("addr", addr).
		Int("events", lib.Store.Len()).
		Int("artists", lib.Index.ArtistCount()).
		Msg("serving listening history")

	return http.ListenAndServe(addr, srv.router())
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(rateLimit(rate.NewLimiter(50, 100)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/artists", s.handleArtists)
		r.Get("/summary", s.handleSummary)
		r.Get("/top/{aspect}", s.handleTop)
		r.Get("/trend", s.handleTrend)
		r.Post("/reload", s.handleReload)
	})
	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, index.ErrNotFound) {
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

type statsResponse struct {
	Events      int       `json:"events"`
	Artists     int       `json:"artists"`
	PlayedMs    int64     `json:"played_ms"`
	FirstListen time.Time `json:"first_listen"`
	LastListen  time.Time `json:"last_listen"`
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	lib := s.lib.Load()
	totals := lib.Index.Totals()
	s.writeJSON(w, http.StatusOK, statsResponse{
		Events:      lib.Store.Len(),
		Artists:     lib.Index.ArtistCount(),
		PlayedMs:    totals.Played.Milliseconds(),
		FirstListen: totals.FirstListen,
		LastListen:  totals.LastListen,
	})
}

type entryResponse struct {
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Name     string `json:"name,omitempty"`
	Plays    int    `json:"plays"`
	PlayedMs int64  `json:"played_ms"`
}

func entryResponses(entries []analysis.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			Artist:   e.Artist,
			Album:    e.Album,
			Name:     e.Name,
			Plays:    e.Plays,
			PlayedMs: e.Played.Milliseconds(),
		})
	}
	return out
}

func (s *server) handleArtists(w http.ResponseWriter, r *http.Request) {
	lib := s.lib.Load()
	entries := analysis.TopArtists(lib.Index, analysis.ByPlays, lib.Index.ArtistCount())
	s.writeJSON(w, http.StatusOK, entryResponses(entries))
}

type summaryResponse struct {
	Selection    string    `json:"selection"`
	Plays        int       `json:"plays"`
	PlayedMs     int64     `json:"played_ms"`
	PercentPlays float64   `json:"percent_plays"`
	PercentTime  float64   `json:"percent_time"`
	FirstListen  time.Time `json:"first_listen"`
	LastListen   time.Time `json:"last_listen"`
	Rank         int       `json:"rank,omitempty"`
	LengthMs     int64     `json:"length_ms,omitempty"`
	FullListens  int       `json:"full_listens,omitempty"`
	NearFull     int       `json:"near_full_listens,omitempty"`
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	lib := s.lib.Load()
	sel, err := selectionFromQuery(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := analysis.Totals(lib.Index, sel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	percentPlays, err := analysis.PercentOfPlays(lib.Index, sel)
	if err != nil {
		s.writeError(w, err)
		return
	}
	percentTime, err := analysis.PercentOfTime(lib.Index, sel)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := summaryResponse{
		Selection:    sel.String(),
		Plays:        stats.Plays,
		PlayedMs:     stats.Played.Milliseconds(),
		PercentPlays: percentPlays,
		PercentTime:  percentTime,
		FirstListen:  stats.FirstListen,
		LastListen:   stats.LastListen,
	}

	if sel.Aspect == analysis.AspectArtist {
		rank, err := analysis.ArtistRank(lib.Index, sel.Artist, analysis.ByPlays)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Rank = rank
	}
	if sel.Aspect == analysis.AspectSong {
		song, err := lib.Index.Song(sel.Artist, sel.Album, sel.Track)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.LengthMs = song.Length.Milliseconds()
		resp.FullListens = song.FullListens
		resp.NearFull = song.NearFullListens
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleTop(w http.ResponseWriter, r *http.Request) {
	lib := s.lib.Load()

	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid n"})
			return
		}
		n = parsed
	}
	metric := analysis.ByPlays
	if r.URL.Query().Get("by") == "time" {
		metric = analysis.ByTime
	}
	acrossAlbums := r.URL.Query().Get("across_albums") == "true"
	artist := r.URL.Query().Get("artist")

	var entries []analysis.Entry
	var err error
	switch chi.URLParam(r, "aspect") {
	case "artists":
		entries = analysis.TopArtists(lib.Index, metric, n)
	case "albums":
		if artist != "" {
			entries, err = analysis.ArtistTopAlbums(lib.Index, artist, metric, n)
		} else {
			entries = analysis.TopAlbums(lib.Index, metric, n)
		}
	case "songs":
		if artist != "" {
			entries, err = analysis.ArtistTopSongs(lib.Index, artist, metric, n, acrossAlbums)
		} else {
			entries = analysis.TopSongs(lib.Index, metric, n, acrossAlbums)
		}
	default:
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "aspect must be artists, albums, or songs"})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, entryResponses(entries))
}

type trendPoint struct {
	Bucket   time.Time `json:"bucket"`
	Plays    int       `json:"plays"`
	PlayedMs int64     `json:"played_ms"`
	Share    float64   `json:"share,omitempty"`
}

func (s *server) handleTrend(w http.ResponseWriter, r *http.Request) {
	lib := s.lib.Load()
	sel, err := selectionFromQuery(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = "month"
	}
	granularity, err := parseGranularity(bucket)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "absolute"
	}
	points, err := buildTrend(lib, sel, granularity, mode)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	out := make([]trendPoint, 0, len(points))
	for _, p := range points {
		out = append(out, trendPoint{
			Bucket:   p.Start,
			Plays:    p.Plays,
			PlayedMs: p.Played.Milliseconds(),
			Share:    p.Share,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	lib, err := loadLibrary(s.dataDir)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.lib.Store(lib)

	s.log.Info().
		Int("events", lib.Store.Len()).
		Int("artists", lib.Index.ArtistCount()).
		Msg("reloaded library")
	s.writeJSON(w, http.StatusOK, map[string]int{"events": lib.Store.Len()})
}

func selectionFromQuery(r *http.Request) (analysis.Selection, error) {
	q := r.URL.Query()
	artist := q.Get("artist")
	album := q.Get("album")
	track := q.Get("track")
	if artist == "" {
		return analysis.Selection{}, fmt.Errorf("artist is required")
	}

	switch {
	case track != "" && album != "":
		return analysis.ForSong(artist, album, track), nil
	case track != "":
		return analysis.ForSongAcrossAlbums(artist, track), nil
	case album != "":
		return analysis.ForAlbum(artist, album), nil
	default:
		return analysis.ForArtist(artist), nil
	}
}
