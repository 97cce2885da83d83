package review

import gonanoid "github.com/matoous/go-nanoid/v2"

// Identifier prefixes. Ids are random and never reused, so a deleted item id
// stays dead instead of being reclaimed by a later insert.
const (
	sessionIDPrefix = "rs-"
	itemIDPrefix    = "it-"
)

func newSessionID() string {
	id, err := gonanoid.New()
	if err != nil {
		panic("nanoid: " + err.Error())
	}
	return sessionIDPrefix + id
}

func newItemID() string {
	id, err := gonanoid.New()
	if err != nil {
		panic("nanoid: " + err.Error())
	}
	return itemIDPrefix + id
}
