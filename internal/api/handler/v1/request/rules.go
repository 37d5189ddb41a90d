package request

import (
	"errors"
	"strings"
)

var (
	errBlankEntry = errors.New("must not contain blank entries")
	errZeroID     = errors.New("must not contain zero ids")
)

func nonBlankStrings(value interface{}) error {
	var values []string
	switch v := value.(type) {
	case []string:
		values = v
	case *[]string:
		if v == nil {
			return nil
		}
		values = *v
	}

	for _, s := range values {
		if strings.TrimSpace(s) == "" {
			return errBlankEntry
		}
	}

	return nil
}

func nonZeroIDs(value interface{}) error {
	var ids []uint
	switch v := value.(type) {
	case []uint:
		ids = v
	case *[]uint:
		if v == nil {
			return nil
		}
		ids = *v
	}

	for _, id := range ids {
		if id == 0 {
			return errZeroID
		}
	}

	return nil
}
