package sync

import (
	"strings"

	"github.com/vonshlovens/siteqa/internal/remote"
	"github.com/vonshlovens/siteqa/internal/store"
)

// Records created independently on both sides have no remote-id link yet,
// so identity falls back to a composite natural key over the content
// fields. Once a link exists the remote id is authoritative and the key is
// no longer consulted for that record.

// NaturalKey derives the fallback identity of a record: the normalized
// (site, category, subcategory, question) tuple.
func NaturalKey(siteName, category, subcategory, question string) string {
	return norm(siteName) + "|" + norm(category) + "|" + norm(subcategory) + "|" + norm(question)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func localKey(r store.Record) string {
	return NaturalKey(r.SiteName, r.Category, r.Subcategory, r.Question)
}

func remoteKey(r remote.Record) string {
	return NaturalKey(r.SiteName, r.Category, r.Subcategory, r.Question)
}

// remoteIndex holds the lookup maps for one remote snapshot. When two
// remote records share a natural key the later one (ascending updated
// order) wins the key slot.
type remoteIndex struct {
	byID  map[string]remote.Record
	byKey map[string]remote.Record
}

func indexRemote(records []remote.Record) remoteIndex {
	idx := remoteIndex{
		byID:  make(map[string]remote.Record, len(records)),
		byKey: make(map[string]remote.Record, len(records)),
	}
	for _, r := range records {
		idx.byID[r.ID.String()] = r
		idx.byKey[remoteKey(r)] = r
	}
	return idx
}

// resolution is the outcome of matching one local record against a remote
// snapshot. A linked record keeps its target id even when the snapshot no
// longer holds that row (the mutation will fail server-side and be counted);
// the natural key is only consulted for unlinked records.
type resolution struct {
	targetID string         // empty when no counterpart exists
	record   *remote.Record // snapshot row for targetID, nil when absent
	viaKey   bool           // match came from the natural key fallback
}

func (idx remoteIndex) resolve(l store.Record) resolution {
	if l.RemoteID != nil {
		res := resolution{targetID: *l.RemoteID}
		if r, found := idx.byID[*l.RemoteID]; found {
			res.record = &r
		}
		return res
	}
	if r, found := idx.byKey[localKey(l)]; found {
		return resolution{targetID: r.ID.String(), record: &r, viaKey: true}
	}
	return resolution{}
}
