package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/franz/melodeon/internal/acoustid"
	"github.com/franz/melodeon/internal/coverart"
	"github.com/franz/melodeon/internal/discogs"
	"github.com/franz/melodeon/internal/enrich"
	"github.com/franz/melodeon/internal/lastfm"
	"github.com/franz/melodeon/internal/musicbrainz"
	"github.com/franz/melodeon/internal/ratelimit"
	"github.com/franz/melodeon/internal/store"
	"github.com/franz/melodeon/internal/wikipedia"
)

// openStore opens the library database named by the --db flag
func openStore() (*store.Store, error) {
	dbPath := viper.GetString("db")
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	return st, nil
}

// credential reads a key from the settings table, falling back to the
// config file / environment. The settings table wins so credentials set
// interactively survive config file churn.
func credential(st *store.Store, key string) string {
	if value, ok := st.GetSetting(key); ok && value != "" {
		return value
	}
	return viper.GetString(key)
}

// buildClients wires up every configured catalog client. Clients with
// missing credentials come back nil and the pipeline degrades around
// them. The returned close func drains the cover art queue.
func buildClients(st *store.Store) (enrich.Clients, func()) {
	limiter := ratelimit.New()

	clients := enrich.Clients{
		MusicBrainz: musicbrainz.NewClient(limiter),
		Wikipedia:   wikipedia.NewClient(limiter),
		Discogs:     discogs.NewClient(credential(st, store.SettingDiscogsToken), limiter),
		LastFM: lastfm.NewClient(
			credential(st, store.SettingLastFMKey),
			credential(st, store.SettingLastFMSecret),
			limiter),
		AcoustID: buildAcoustID(st, limiter),
	}

	coverDir := credential(st, store.SettingCoverDirectory)
	if coverDir == "" {
		coverDir = "covers"
	}
	queue := coverart.NewQueue(coverart.NewClient(limiter), st, coverDir)
	clients.Covers = queue

	return clients, queue.Close
}

// buildAcoustID wires up the fingerprint client; without a configured
// key its lookups report no data
func buildAcoustID(st *store.Store, limiter *ratelimit.Limiter) *acoustid.Client {
	key := credential(st, store.SettingAcoustIDKey)
	fpcalc := viper.GetString("fpcalc")
	if fpcalc == "" {
		fpcalc = "fpcalc"
	}
	return acoustid.NewClient(key, fpcalc, limiter)
}
