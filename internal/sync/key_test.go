package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vonshlovens/siteqa/internal/remote"
	"github.com/vonshlovens/siteqa/internal/store"
)

func TestNaturalKeyNormalization(t *testing.T) {
	tests := []struct {
		name string
		a    [4]string
		b    [4]string
		same bool
	}{
		{
			name: "case insensitive",
			a:    [4]string{"Alpha", "Billing", "Refunds", "How?"},
			b:    [4]string{"alpha", "billing", "refunds", "how?"},
			same: true,
		},
		{
			name: "surrounding whitespace ignored",
			a:    [4]string{" alpha", "billing ", " refunds ", "how?"},
			b:    [4]string{"alpha", "billing", "refunds", "how?"},
			same: true,
		},
		{
			name: "inner whitespace significant",
			a:    [4]string{"alpha", "billing", "refunds", "how  so?"},
			b:    [4]string{"alpha", "billing", "refunds", "how so?"},
			same: false,
		},
		{
			name: "different question",
			a:    [4]string{"alpha", "billing", "refunds", "how?"},
			b:    [4]string{"alpha", "billing", "refunds", "why?"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := NaturalKey(tt.a[0], tt.a[1], tt.a[2], tt.a[3])
			kb := NaturalKey(tt.b[0], tt.b[1], tt.b[2], tt.b[3])
			if (ka == kb) != tt.same {
				t.Errorf("NaturalKey(%v) vs NaturalKey(%v): equal = %v, want %v", tt.a, tt.b, ka == kb, tt.same)
			}
		})
	}
}

func TestResolvePrefersRemoteID(t *testing.T) {
	r := remote.Record{
		ID: uuid.New(), SiteName: "alpha", Category: "billing",
		Subcategory: "refunds", Question: "how?", UpdatedAt: time.Now(),
	}
	other := remote.Record{
		ID: uuid.New(), SiteName: "beta", Category: "account",
		Subcategory: "login", Question: "reset?", UpdatedAt: time.Now(),
	}
	idx := indexRemote([]remote.Record{r, other})

	// Linked to `other` even though the content matches `r` by key
	rid := other.ID.String()
	l := store.Record{
		LocalID: 1, RemoteID: &rid,
		SiteName: "alpha", Category: "billing", Subcategory: "refunds", Question: "how?",
	}

	res := idx.resolve(l)
	if res.targetID != other.ID.String() {
		t.Errorf("target = %s, the remote id link must win over the natural key", res.targetID)
	}
	if res.viaKey {
		t.Error("linked record reported as a key match")
	}
}

func TestResolveLinkedToMissingRemote(t *testing.T) {
	idx := indexRemote(nil)
	rid := uuid.New().String()
	l := store.Record{LocalID: 1, RemoteID: &rid, SiteName: "alpha"}

	res := idx.resolve(l)
	if res.targetID != rid {
		t.Errorf("target = %q, a dangling link still names its remote id", res.targetID)
	}
	if res.record != nil {
		t.Error("record should be nil when the remote id is absent from the snapshot")
	}
}

func TestResolveByNaturalKey(t *testing.T) {
	r := remote.Record{
		ID: uuid.New(), SiteName: "Alpha", Category: "Billing",
		Subcategory: "Refunds", Question: "How?",
	}
	idx := indexRemote([]remote.Record{r})

	l := store.Record{
		LocalID: 1, SiteName: "alpha ", Category: "billing",
		Subcategory: " refunds", Question: "how?",
	}
	res := idx.resolve(l)
	if res.targetID != r.ID.String() {
		t.Errorf("target = %q, want key match against %s", res.targetID, r.ID)
	}
	if !res.viaKey {
		t.Error("key match not flagged viaKey")
	}
}

func TestResolveNone(t *testing.T) {
	idx := indexRemote(nil)
	l := store.Record{LocalID: 1, SiteName: "alpha", Question: "how?"}
	if res := idx.resolve(l); res.targetID != "" {
		t.Errorf("target = %q, want none", res.targetID)
	}
}
