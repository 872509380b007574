package skills

import "errors"

var errNoFetcher = errors.New("no URL fetcher configured")
