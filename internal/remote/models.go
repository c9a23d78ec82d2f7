package remote

import (
	"time"

	"github.com/google/uuid"
)

// Record is a Q/A record as held by the authoritative store. The id and
// timestamps are server-assigned; IsDeleted marks a tombstone that exists
// so deletions can propagate to other replicas.
type Record struct {
	ID             uuid.UUID `db:"id"`
	SiteName       string    `db:"site_name"`
	Category       string    `db:"category"`
	Subcategory    string    `db:"subcategory"`
	Question       string    `db:"question"`
	Answer         string    `db:"answer"`
	AdditionalInfo string    `db:"additional_info"`
	Approved       bool      `db:"approved"`
	IsDeleted      bool      `db:"is_deleted"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Fields is the writable payload for create/update. Writes always carry
// is_deleted = false; tombstoning goes through SoftDelete.
type Fields struct {
	SiteName       string
	Category       string
	Subcategory    string
	Question       string
	Answer         string
	AdditionalInfo string
	Approved       bool
}
