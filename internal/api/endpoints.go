package api

import (
	"net/url"
	"strconv"
)

const (
	PathLogin     = "/api/auth/login"
	PathRegister  = "/api/auth/signup"
	PathMe        = "/api/auth/me"
	PathWishes    = "/api/wishes"
	PathCompleted = "/api/wishes/completed"
	PathPending   = "/api/wishes/pending"
)

func pathWish(id int64) string { return PathWishes + "/" + strconv.FormatInt(id, 10) }

func pathComplete(id int64) string { return pathWish(id) + "/complete" }

func pathCategory(category string) string {
	return PathWishes + "/category/" + url.PathEscape(category)
}

func pathSearch(term string) string {
	return PathWishes + "/search?term=" + url.QueryEscape(term)
}
