package collector

import (
	"fmt"
	"strings"

	"github.com/use-agent/inserate/models"
	"github.com/use-agent/inserate/session"
)

// Selectors for the search result page.
const (
	selListItem    = ".ad-listitem:not(.is-topad):not(.badge-hint-pro-small-srp)"
	selArticle     = "article"
	selDistance    = "div.aditem-main--top > div.aditem-main--top--left"
	selPreviewImg  = ".aditem-image > a > div > img"
	selTitle       = "h2.text-module-begin a.ellipsis"
	selPrice       = "p.aditem-main--middle--price-shipping--price"
	selDescription = "p.aditem-main--middle--description"
	selEmptyResult = "#saved-search-empty-result"
)

// ExtractListings maps every organic listing card on page to a Listing.
// Top ads and small pro-badge cards are excluded by selector. Cards without
// an ad id or link are skipped; missing optional fields degrade to "" or 0.
//
// Any error from the page aborts the whole page: callers get either all
// records of the page or an error.
func ExtractListings(page session.Page, baseURL string) ([]models.Listing, error) {
	items, err := page.QuerySelectorAll(selListItem)
	if err != nil {
		return nil, fmt.Errorf("query listing items: %w", err)
	}

	origin := strings.TrimRight(baseURL, "/")
	listings := make([]models.Listing, 0, len(items))
	for i, item := range items {
		l, ok, err := extractListing(item, origin)
		if err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
		if ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

func extractListing(item session.Element, origin string) (models.Listing, bool, error) {
	article, err := item.QuerySelector(selArticle)
	if err != nil || article == nil {
		return models.Listing{}, false, err
	}

	adID, _, err := article.Attribute("data-adid")
	if err != nil {
		return models.Listing{}, false, err
	}
	href, _, err := article.Attribute("data-href")
	if err != nil {
		return models.Listing{}, false, err
	}
	if adID == "" || href == "" {
		return models.Listing{}, false, nil
	}

	distanceText, err := textOf(article, selDistance)
	if err != nil {
		return models.Listing{}, false, err
	}
	previewURL, err := attrOf(article, selPreviewImg, "src")
	if err != nil {
		return models.Listing{}, false, err
	}
	title, err := textOf(article, selTitle)
	if err != nil {
		return models.Listing{}, false, err
	}
	priceText, err := textOf(article, selPrice)
	if err != nil {
		return models.Listing{}, false, err
	}
	description, err := textOf(article, selDescription)
	if err != nil {
		return models.Listing{}, false, err
	}

	return models.Listing{
		AdID:            adID,
		URL:             absoluteURL(origin, href),
		PreviewImageURL: previewURL,
		Title:           title,
		Price:           ParsePrice(priceText),
		Description:     description,
		Distance:        ParseDistance(distanceText),
	}, true, nil
}

// textOf returns the inner text of the first match of css under el, or "".
func textOf(el session.Element, css string) (string, error) {
	child, err := el.QuerySelector(css)
	if err != nil || child == nil {
		return "", err
	}
	return child.InnerText()
}

// attrOf returns attribute name of the first match of css under el, or "".
func attrOf(el session.Element, css, name string) (string, error) {
	child, err := el.QuerySelector(css)
	if err != nil || child == nil {
		return "", err
	}
	v, _, err := child.Attribute(name)
	return v, err
}

// absoluteURL prefixes site-relative links with origin.
func absoluteURL(origin, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return origin + href
}

// hasEmptyResultBanner reports whether the site flagged the page as having
// no exact matches for the query.
func hasEmptyResultBanner(page session.Page) (bool, error) {
	el, err := page.QuerySelector(selEmptyResult)
	if err != nil {
		return false, err
	}
	return el != nil, nil
}
