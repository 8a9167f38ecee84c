package panel

import (
	"errors"
	"strings"
)

// ErrNoLinkEntered is returned for an empty selector search
var ErrNoLinkEntered = errors.New(msgNoLinkEntered)

// ShortKeyFromSearch turns selector input into a link key, dropping a leading "<domain>/"
func ShortKeyFromSearch(search, domain string) (string, error) {
	if search == "" {
		return "", ErrNoLinkEntered
	}
	if domain != "" {
		if key, ok := strings.CutPrefix(search, domain+"/"); ok {
			return key, nil
		}
	}
	return search, nil
}
