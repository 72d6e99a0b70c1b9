package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewDocumentNumber returns "GBR-{year}-{code}-{9 alphanumerics}".
func NewDocumentNumber(t DocumentType, now time.Time) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:9]
	return fmt.Sprintf("GBR-%d-%s-%s", now.Year(), t.Code(), token)
}

// EntryIDs hands out child-entry identifiers that never repeat within one
// generator, even when many are minted in the same instant.
type EntryIDs struct {
	seen map[string]struct{}
}

// NewEntryIDs returns a generator that also refuses the given existing ids.
func NewEntryIDs(existing ...string) *EntryIDs {
	g := &EntryIDs{seen: make(map[string]struct{}, len(existing))}
	for _, id := range existing {
		g.seen[id] = struct{}{}
	}
	return g
}

// Next returns "{documentNumber}-{unix millis}-{random}".
func (g *EntryIDs) Next(documentNumber string) string {
	for {
		id := documentNumber + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString()[:8]
		if _, dup := g.seen[id]; dup {
			continue
		}
		g.seen[id] = struct{}{}
		return id
	}
}
