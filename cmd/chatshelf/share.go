package main

import (
	"net/url"
	"strings"
)

func shareLink(base, id string) string {
	return strings.TrimRight(base, "/") + "/view/" + url.PathEscape(id)
}

// localURL guesses the URL of a server listening on addr on this machine.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
