// Package query builds search result URLs for the listing site.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/use-agent/inserate/models"
)

// DefaultBaseURL is the origin of the listing site.
const DefaultBaseURL = "https://www.kleinanzeigen.de"

// BuildSearchURL returns the URL of result page `page` (1-based) for req.
//
// Layout:
//
//	<base>[/preis:<min>:<max>]/s-seite:<page>[?keywords=..&locationStr=..&radius=..]
//
// An unset price bound renders as an empty token, so "/preis::500" means
// "up to 500". The function is pure.
func BuildSearchURL(baseURL string, req *models.SearchRequest, page int) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))

	if req.MinPrice != nil || req.MaxPrice != nil {
		b.WriteString("/preis:")
		b.WriteString(optInt(req.MinPrice))
		b.WriteString(":")
		b.WriteString(optInt(req.MaxPrice))
	}

	b.WriteString("/s-seite:")
	b.WriteString(strconv.Itoa(page))

	params := url.Values{}
	if req.Query != "" {
		params.Set("keywords", req.Query)
	}
	if req.Location != "" {
		params.Set("locationStr", req.Location)
	}
	// The site treats radius 0 as "no radius", so it is left out like nil.
	if req.Radius != nil && *req.Radius > 0 {
		params.Set("radius", strconv.Itoa(*req.Radius))
	}
	if len(params) > 0 {
		b.WriteString("?")
		b.WriteString(params.Encode())
	}

	return b.String()
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
